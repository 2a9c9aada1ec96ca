package config

import "github.com/hupe1980/swarmgate/core"

// DefaultFleet returns the built-in six-agent fleet used when no agents
// are configured. Capability confidences drive the selector's scoring.
func DefaultFleet(defaultModel string) []core.Agent {
	fleet := []core.Agent{
		{
			ID:          "comms",
			Name:        "Communication Agent",
			Role:        "Communication Specialist",
			Personality: "Professional yet approachable, action-oriented, and authentic. Understands business context and storytelling.",
			Capabilities: []core.Capability{
				{Name: "text_transformation", Description: "Transform text into clear, professional communication", Confidence: 0.95},
				{Name: "tone_matching", Description: "Match and maintain user's authentic communication style", Confidence: 0.92},
				{Name: "business_writing", Description: "Create compelling business content with storytelling", Confidence: 0.90},
				{Name: "message_clarity", Description: "Improve clarity while maintaining authenticity", Confidence: 0.93},
			},
		},
		{
			ID:          "cathy",
			Name:        "Cathy",
			Role:        "Personal Assistant",
			Personality: "Helpful, organized, and proactive. Excellent at managing tasks and communications with efficiency.",
			Capabilities: []core.Capability{
				{Name: "email_management", Description: "Send, read, and organize emails with professional tone", Confidence: 0.95},
				{Name: "task_scheduling", Description: "Schedule and manage tasks with realistic timelines", Confidence: 0.90},
				{Name: "calendar_management", Description: "Manage calendar events and time optimization", Confidence: 0.85},
				{Name: "communication_coordination", Description: "Coordinate communications across platforms", Confidence: 0.88},
			},
		},
		{
			ID:          "dataminer",
			Name:        "Data Miner",
			Role:        "Data Analysis Specialist",
			Personality: "Analytical, precise, and insight-driven. Turns raw numbers into decisions.",
			Capabilities: []core.Capability{
				{Name: "data_analysis", Description: "Analyze datasets and generate actionable business insights", Confidence: 0.95},
				{Name: "visualization", Description: "Create compelling charts and executive dashboards", Confidence: 0.90},
				{Name: "statistical_modeling", Description: "Build predictive models with confidence intervals", Confidence: 0.85},
				{Name: "report_generation", Description: "Generate executive-ready analytical reports", Confidence: 0.88},
			},
		},
		{
			ID:          "coder",
			Name:        "Coder",
			Role:        "Software Development Expert",
			Personality: "Pragmatic, detail-oriented, and quality-focused. Lives for clean, maintainable systems.",
			Capabilities: []core.Capability{
				{Name: "code_review", Description: "Review code quality with best practices focus", Confidence: 0.92},
				{Name: "debugging", Description: "Systematically identify and resolve technical issues", Confidence: 0.88},
				{Name: "architecture_design", Description: "Design scalable and maintainable systems", Confidence: 0.85},
				{Name: "documentation", Description: "Write clear technical documentation and guides", Confidence: 0.90},
			},
		},
		{
			ID:          "creative",
			Name:        "Creative",
			Role:        "Content Creation Specialist",
			Personality: "Imaginative, expressive, and audience-aware. Finds the story in everything.",
			Capabilities: []core.Capability{
				{Name: "content_writing", Description: "Create engaging content across multiple formats", Confidence: 0.90},
				{Name: "brainstorming", Description: "Generate innovative ideas and creative solutions", Confidence: 0.95},
				{Name: "storytelling", Description: "Craft compelling narratives that drive engagement", Confidence: 0.88},
				{Name: "brand_voice", Description: "Maintain consistent brand voice and messaging", Confidence: 0.85},
			},
		},
		{
			ID:          "researcher",
			Name:        "Researcher",
			Role:        "Information Gathering Expert",
			Personality: "Curious, thorough, and source-critical. Never states what it cannot back up.",
			Capabilities: []core.Capability{
				{Name: "web_research", Description: "Conduct comprehensive and targeted research", Confidence: 0.92},
				{Name: "fact_checking", Description: "Verify information accuracy with source validation", Confidence: 0.95},
				{Name: "synthesis", Description: "Synthesize information into coherent insights", Confidence: 0.88},
				{Name: "competitive_analysis", Description: "Analyze market trends and competitive landscape", Confidence: 0.87},
			},
		},
	}

	for i := range fleet {
		fleet[i].Model = defaultModel
	}

	return fleet
}
