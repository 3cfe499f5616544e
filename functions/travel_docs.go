package functions

import "google.golang.org/genai"

// GetTravelPlannerFeaturesFunctionDeclaration returns the function declaration for Gemini
func GetTravelPlannerFeaturesFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "GetTravelPlannerFeatures",
		Description: "Get everything the travel planner app can do, so the assistant can point the traveler to the right feature",
	}
}

var docs string = `
The AI Travel Planner helps travelers plan and enjoy their trips.
- Itinerary generator: enter a destination, trip length, interests and budget to get a day-by-day plan.
- Travel chat: ask follow-up questions about a destination in a text conversation.
- Nearby places: find restaurants, sights and services close to your current location.
- Photo editor: describe an edit and apply it to a travel photo.
- Video generator: animate a travel photo into a short 720p video in landscape (16:9) or portrait (9:16).
- Live assistant: talk to the planner in real time with your voice.
`

func GetTravelPlannerFeatures() string {
	return docs
}
