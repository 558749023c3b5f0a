// Package prompt assembles the final image-generation prompt from the user's
// free text, the optional vision description and the framing/style directives.
// Assembly is pure string composition and deterministic for identical inputs.
package prompt

import (
	"fmt"
	"strings"
)

// Framing is a closed camera-shot directive controlling composition.
type Framing int

// Framing values, ordered tightest to widest shot.
const (
	FramingFace Framing = iota
	FramingBust
	FramingWaist
	FramingKnee
	FramingFull
)

// Style is a closed art-style directive.
type Style int

// Style values.
const (
	StyleRealistic Style = iota
	StyleIllustration
	StyleAnime
	StyleWatercolor
	StyleOil
)

// ParseFraming maps a wire value to a Framing. Unknown values fall back to
// the full-body shot, the widest and safest default.
func ParseFraming(value string) (Framing, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "face":
		return FramingFace, true
	case "bust":
		return FramingBust, true
	case "waist":
		return FramingWaist, true
	case "knee":
		return FramingKnee, true
	case "full", "":
		return FramingFull, true
	default:
		return FramingFull, false
	}
}

// ParseStyle maps a wire value to a Style. Unknown values fall back to
// realistic.
func ParseStyle(value string) (Style, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "realistic", "":
		return StyleRealistic, true
	case "illustration":
		return StyleIllustration, true
	case "anime":
		return StyleAnime, true
	case "watercolor":
		return StyleWatercolor, true
	case "oil":
		return StyleOil, true
	default:
		return StyleRealistic, false
	}
}

// String returns the wire value of the framing.
func (f Framing) String() string {
	switch f {
	case FramingFace:
		return "face"
	case FramingBust:
		return "bust"
	case FramingWaist:
		return "waist"
	case FramingKnee:
		return "knee"
	case FramingFull:
		return "full"
	}
	return "full"
}

// shot returns the composition directive injected at the head of the prompt.
func (f Framing) shot() string {
	switch f {
	case FramingFace:
		return "Close-up face shot (head and shoulders filling the frame)"
	case FramingBust:
		return "Bust shot (framed from the chest up)"
	case FramingWaist:
		return "Waist-up shot (framed from the waist up)"
	case FramingKnee:
		return "Knee-up shot (framed from the knees up)"
	case FramingFull:
		return "Full body shot (showing the entire outfit from head to toe)"
	}
	return "Full body shot (showing the entire outfit from head to toe)"
}

// Keywords returns the inclusion keywords biasing composition.
func (f Framing) Keywords() []string {
	switch f {
	case FramingFace:
		return []string{"detailed facial features", "sharp focus on face", "portrait framing"}
	case FramingBust:
		return []string{"upper chest visible", "natural shoulder line", "portrait composition"}
	case FramingWaist:
		return []string{"torso fully visible", "natural arm placement"}
	case FramingKnee:
		return []string{"three-quarter length", "legs partially visible"}
	case FramingFull:
		return []string{"entire body visible", "feet in frame", "complete outfit visible"}
	}
	return nil
}

// NegativeKeywords returns the exclusion keywords for the framing.
func (f Framing) NegativeKeywords() []string {
	switch f {
	case FramingFace:
		return []string{"full body", "distant subject", "wide angle"}
	case FramingBust:
		return []string{"full body", "legs visible"}
	case FramingWaist:
		return []string{"cropped head", "extreme close-up"}
	case FramingKnee:
		return []string{"cropped head", "extreme close-up"}
	case FramingFull:
		return []string{"cropped limbs", "cut-off feet", "extreme close-up"}
	}
	return nil
}

// String returns the wire value of the style.
func (s Style) String() string {
	switch s {
	case StyleRealistic:
		return "realistic"
	case StyleIllustration:
		return "illustration"
	case StyleAnime:
		return "anime"
	case StyleWatercolor:
		return "watercolor"
	case StyleOil:
		return "oil"
	}
	return "realistic"
}

// Keywords returns the inclusion keywords of the style.
func (s Style) Keywords() []string {
	switch s {
	case StyleRealistic:
		return []string{"8k resolution", "raw photo", "dslr", "85mm lens", "depth of field", "bokeh", "soft lighting", "neutral lighting", "white balance", "high detail", "film grain", "Fujifilm XT3"}
	case StyleIllustration:
		return []string{"digital illustration", "clean line art", "flat shading", "vibrant palette", "editorial illustration"}
	case StyleAnime:
		return []string{"anime style", "cel shading", "expressive eyes", "clean outlines", "studio quality key visual"}
	case StyleWatercolor:
		return []string{"watercolor painting", "soft washes", "paper texture", "bleeding pigment edges", "delicate brushwork"}
	case StyleOil:
		return []string{"oil painting", "visible brushstrokes", "impasto texture", "rich color depth", "classical portrait lighting"}
	}
	return nil
}

// NegativeKeywords returns the exclusion keywords of the style.
func (s Style) NegativeKeywords() []string {
	switch s {
	case StyleRealistic:
		return []string{"cartoon", "illustration", "painting", "3d render"}
	case StyleIllustration:
		return []string{"photorealistic", "photograph"}
	case StyleAnime:
		return []string{"photorealistic", "photograph", "western cartoon"}
	case StyleWatercolor:
		return []string{"photorealistic", "hard edges", "digital flat color"}
	case StyleOil:
		return []string{"photorealistic", "flat digital shading"}
	}
	return nil
}

// Input holds everything that feeds the final prompt.
type Input struct {
	Prompt          string  // user free text, required
	FaceDescription string  // vision analysis output, empty when unavailable
	Framing         Framing // camera-shot directive
	Style           Style   // art-style directive
	NegativePrompt  string  // user-supplied exclusion suffix
}

// Assemble composes the final prompt string. Structure follows framing and
// context first, then identity, then style, then exclusions, so the model
// establishes the scene before applying the subject and treatment.
func Assemble(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s of %s.", in.Framing.shot(), strings.TrimSpace(in.Prompt))

	if desc := strings.TrimSpace(in.FaceDescription); desc != "" {
		fmt.Fprintf(&b, "\n\nThe subject has the following physical features: %s.", desc)
		b.WriteString("\n\n(CRITICAL: The face shape must not be distorted or widened. Keep the subject's skin tone EXACTLY as described. Do NOT add warm filters or tanning.)")
	}

	fmt.Fprintf(&b, "\n\nComposition: %s.", strings.Join(in.Framing.Keywords(), ", "))
	fmt.Fprintf(&b, "\n\nStyle used: %s.", strings.Join(in.Style.Keywords(), ", "))

	negatives := make([]string, 0, 8)
	negatives = append(negatives, in.Framing.NegativeKeywords()...)
	negatives = append(negatives, in.Style.NegativeKeywords()...)
	if extra := strings.TrimSpace(in.NegativePrompt); extra != "" {
		negatives = append(negatives, extra)
	}
	fmt.Fprintf(&b, "\n\nAvoid: %s.", strings.Join(negatives, ", "))

	return b.String()
}
