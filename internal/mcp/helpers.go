package mcpserver

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"designer/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// splitIDs parses a comma-separated id list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// pointArg returns the (x, y) hint when both coordinates are present.
func pointArg(args map[string]any) *domain.Point {
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY || math.IsNaN(x) || math.IsNaN(y) {
		return nil
	}
	return &domain.Point{X: x, Y: y}
}

// elementSummary is the compact view of an element returned to agents.
type elementSummary struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
	ZIndex   int     `json:"zIndex"`
	Label    string  `json:"label,omitempty"`
	Selected bool    `json:"selected,omitempty"`
}

func summarizeElement(e domain.Element, selected map[string]bool) elementSummary {
	sum := elementSummary{
		ID:       e.ID,
		Type:     string(e.Type),
		X:        e.X,
		Y:        e.Y,
		Width:    e.Width,
		Height:   e.Height,
		Rotation: e.Rotation,
		ZIndex:   e.ZIndex,
		Selected: selected[e.ID],
	}
	switch {
	case e.Text != nil:
		sum.Label = truncate(e.Text.Text, 60)
	case e.Shape != nil:
		sum.Label = string(e.Shape.ShapeType)
	case e.Image != nil:
		sum.Label = truncate(e.Image.Src, 60)
	}
	return sum
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func describeIDs(ids []string) string {
	if len(ids) == 1 {
		return fmt.Sprintf("element %s", ids[0])
	}
	return fmt.Sprintf("%d elements", len(ids))
}

func boolPtr(b bool) *bool { return &b }
