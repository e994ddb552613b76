// Package testdata embeds recorded landmark payloads for tests.
package testdata

import (
	"embed"
	"fmt"

	"github.com/ayusman/fingershot/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// Fixture names.
const (
	FingerGun = "finger_gun"
	OpenPalm  = "open_palm"
	Malformed = "malformed"
)

// LoadPayload returns the raw JSON of a landmark payload fixture, as a
// browser client would send it.
func LoadPayload(name string) ([]byte, error) {
	data, err := handsFS.ReadFile("hands/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load payload %s: %w", name, err)
	}
	return data, nil
}

// LoadHands decodes a fixture into its well-formed hands.
func LoadHands(name string) ([]detector.HandLandmarks, error) {
	data, err := LoadPayload(name)
	if err != nil {
		return nil, err
	}

	hands, err := detector.ParseHands(data)
	if err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", name, err)
	}
	return hands, nil
}
