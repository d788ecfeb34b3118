package service

import (
	"fmt"
	"strings"

	"carparts/internal/model"
)

// PartSeed is one catalog entry of a seed file.
type PartSeed struct {
	Name        string `json:"name"`
	CarModel    string `json:"car_model"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PartsFromSeeds validates seed entries and converts them to parts.
// Entries without a name or car model are rejected rather than skipped.
func PartsFromSeeds(seeds []PartSeed) ([]model.Part, error) {
	parts := make([]model.Part, 0, len(seeds))
	for i, sd := range seeds {
		name := strings.TrimSpace(sd.Name)
		carModel := strings.TrimSpace(sd.CarModel)
		if name == "" || carModel == "" {
			return nil, fmt.Errorf("seed entry %d: name and car_model are required", i)
		}
		price, err := parsePrice(sd.Price)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		image := strings.TrimSpace(sd.Image)
		if image != "" && !strings.HasPrefix(image, imagePathPrefix) {
			image = imagePathPrefix + image
		}
		parts = append(parts, model.Part{
			Name:        name,
			CarModel:    carModel,
			Price:       price,
			Description: strings.TrimSpace(sd.Description),
			Image:       image,
		})
	}
	return parts, nil
}
