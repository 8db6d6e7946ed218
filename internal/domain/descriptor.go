package domain

import "time"

// DescriptorKind discriminates the queued job variants.
type DescriptorKind string

const (
	KindGeneration DescriptorKind = "generation"
	KindRefinement DescriptorKind = "refinement"
)

// RefinementSpec carries the extra fields a refinement job needs: the job it
// refines and the hosted image it uses as base reference.
type RefinementSpec struct {
	ParentJobID  string `json:"parent_job_id"`
	BaseImageURL string `json:"base_image_url"`
}

// Descriptor is the transient payload describing one queued unit of work.
// Kind selects the variant; Refine is set iff Kind is KindRefinement. The
// queue gives no uniqueness guarantee beyond FIFO order, so a descriptor can
// appear twice if the HTTP caller retries a submission.
type Descriptor struct {
	Kind           DescriptorKind  `json:"kind"`
	JobID          string          `json:"job_id"`
	UserID         string          `json:"user_id"`
	Prompt         string          `json:"prompt"`
	UploadedImages []string        `json:"uploaded_images,omitempty"`
	StylePreset    string          `json:"style_preset,omitempty"`
	Refine         *RefinementSpec `json:"refine,omitempty"`
	QueuedAt       time.Time       `json:"queued_at"`
}

// ReferenceImage returns the image the generation call should condition on:
// the refinement base for refinement jobs, otherwise the first uploaded
// image, otherwise empty.
func (d Descriptor) ReferenceImage() string {
	if d.Kind == KindRefinement && d.Refine != nil && d.Refine.BaseImageURL != "" {
		return d.Refine.BaseImageURL
	}
	if len(d.UploadedImages) > 0 {
		return d.UploadedImages[0]
	}
	return ""
}
