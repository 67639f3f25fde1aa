//nolint:lll
package ai

const (
	// QualitySystemPrompt asks for a bare 0-100 quality score.
	QualitySystemPrompt = "You are a content quality analyzer. Score the following content from 0-100 based on: originality (40%), relevance (30%), and complexity (30%). Respond with only the numeric score."

	// RelatednessSystemPrompt asks whether content relates to the weekly task title.
	RelatednessSystemPrompt = `You are a content analyzer. Determine if the following content is related to the task title: "%s". Respond with only 'yes' or 'no'.`
)
