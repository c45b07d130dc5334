package deployment

// FallbackName is shown when the deployment metadata cannot be loaded.
const FallbackName = "watsonx AI Service"

// Deployment is the public metadata of the AI service deployment.
type Deployment struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	AvatarColor      string   `json:"avatar_color,omitempty"`
	AvatarIcon       string   `json:"avatar_icon,omitempty"`
	PlaceholderImage string   `json:"placeholder_image,omitempty"`
	SampleQuestions  []string `json:"sample_questions,omitempty"`
}

// Fallback returns the placeholder deployment used when loading fails.
func Fallback() Deployment {
	return Deployment{Name: FallbackName}
}
