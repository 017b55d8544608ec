package assets

import (
	"fmt"
	"strconv"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/imagegen"
)

// OnboardingSteps is the number of illustrated onboarding screens.
const OnboardingSteps = 4

var onboardingScenes = [OnboardingSteps]string{
	"a tidy open refrigerator glowing softly in a calm kitchen at night",
	"a hand placing a carton of milk on a shelf next to a small calendar",
	"a row of fruits and vegetables with small colored tags showing freshness",
	"a warm family dinner made from leftover vegetables and rice",
}

const (
	iconStyle  = "flat vector icon, soft pastel palette, centered, plain light background, no text"
	sceneStyle = "warm editorial illustration, soft light, wide composition, no text"
	photoStyle = "overhead food photography, natural light, rustic table, no text"
)

// Prompt is the generation request for one key.
type Prompt struct {
	Text   string
	Aspect imagegen.AspectRatio
}

// PromptBuilder turns a canonical key into a generation prompt.
type PromptBuilder func(key string) (Prompt, error)

// DefaultPrompts builds prompts for every key kind this package defines.
func DefaultPrompts(key string) (Prompt, error) {
	k, err := ParseKey(key)
	if err != nil {
		return Prompt{}, err
	}
	switch k.Kind {
	case KindCategory:
		name := classify.Category(k.ID).DisplayName()
		return Prompt{
			Text:   fmt.Sprintf("An icon representing the %s grocery category, %s", name, iconStyle),
			Aspect: imagegen.Square,
		}, nil
	case KindItem:
		return Prompt{
			Text:   fmt.Sprintf("An icon of %s, %s", k.ID, iconStyle),
			Aspect: imagegen.Square,
		}, nil
	case KindOnboarding:
		step, _ := strconv.Atoi(k.ID)
		return Prompt{
			Text:   fmt.Sprintf("Illustration of %s, %s", onboardingScenes[step], sceneStyle),
			Aspect: imagegen.Landscape,
		}, nil
	case KindRecipe:
		return Prompt{
			Text:   fmt.Sprintf("A plated dish of %s, %s", k.ID, photoStyle),
			Aspect: imagegen.Landscape,
		}, nil
	}
	return Prompt{}, fmt.Errorf("no prompt for key %q", key)
}
