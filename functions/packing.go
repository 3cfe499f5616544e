package functions

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GetPackingChecklistFunctionDeclaration returns the function declaration for Gemini
func GetPackingChecklistFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "GetPackingChecklist",
		Description: "Build a packing checklist for a trip given its length in days and the expected climate",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"destination": {Type: genai.TypeString, Description: "Where the traveler is going"},
				"days":        {Type: genai.TypeInteger, Description: "Trip length in days"},
				"climate": {
					Type:        genai.TypeString,
					Description: "Expected weather",
					Enum:        []string{"hot", "mild", "cold", "rainy"},
				},
			},
			Required: []string{"days"},
		},
	}
}

var climateItems = map[string][]string{
	"hot":   {"sunscreen", "sunglasses", "hat", "light breathable clothing", "reusable water bottle"},
	"mild":  {"light jacket", "layers", "comfortable walking shoes"},
	"cold":  {"insulated coat", "gloves", "scarf", "thermal layers", "warm socks"},
	"rainy": {"rain jacket", "compact umbrella", "waterproof shoes", "dry bag"},
}

// GetPackingChecklist returns a checklist sized to the trip.
func GetPackingChecklist(destination string, days int, climate string) []string {
	if days < 1 {
		days = 1
	}
	outfits := min(days, 7)

	items := []string{
		"passport or ID",
		"travel insurance details",
		"phone charger and adapter",
		"medications",
		fmt.Sprintf("%d sets of clothes", outfits),
		fmt.Sprintf("%d pairs of socks and underwear", outfits+1),
		"toiletries",
	}
	if days > 7 {
		items = append(items, "laundry bag and travel detergent")
	}
	items = append(items, climateItems[strings.ToLower(climate)]...)
	if destination != "" {
		items = append(items, "offline map of "+destination)
	}
	return items
}
