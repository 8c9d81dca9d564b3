// Package prompt assembles generation prompts from researched
// biography data, style directives, and model capability flags.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kapu/portrait-gen-go/internal/domain"
)

// Flags selects the capability-gated sections of a prompt.
type Flags struct {
	NativeTextRendering bool
	PhysicsAware        bool
	FactChecking        bool
}

const maxListedReferences = 5

type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Build assembles the full portrait prompt. Section order is fixed:
// subject, references, composition, style, text rendering, quality,
// then the capability-gated physics and fact-checking sections, and
// the closing directives.
func (c *Composer) Build(bio *domain.Biography, style domain.Style, refs []domain.ReferenceImage, flags Flags) string {
	sections := []string{
		subjectSection(bio),
	}

	if len(refs) > 0 {
		sections = append(sections, referenceSection(refs))
	}

	sections = append(sections,
		compositionSection(),
		styleSection(style),
		textRenderingSection(flags.NativeTextRendering),
		qualitySection(),
	)

	if flags.PhysicsAware {
		sections = append(sections, physicsSection())
	}
	if flags.FactChecking {
		sections = append(sections, factCheckingSection(bio))
	}

	sections = append(sections, finalDirectives())

	return strings.Join(sections, "\n\n")
}

// Simple builds a minimal prompt for legacy models: subject facts,
// composition, and style only.
func (c *Composer) Simple(bio *domain.Biography, style domain.Style) string {
	return strings.Join([]string{
		subjectSection(bio),
		compositionSection(),
		styleSection(style),
		finalDirectives(),
	}, "\n\n")
}

// EnhanceWithReasoning appends internal reasoning instructions for
// models that support it. With iterate set, the model is also told to
// refine across the given number of internal passes.
func (c *Composer) EnhanceWithReasoning(prompt string, iterate bool, maxIterations int) string {
	var b strings.Builder
	b.WriteString(prompt)

	b.WriteString("\n\nINTERNAL REASONING:\n")
	b.WriteString("Before rendering, reason through the subject's documented appearance, ")
	b.WriteString("the conventions of their era, and how the requested style should interpret both. ")
	b.WriteString("Resolve any conflicts between references in favor of documented facts.")

	if iterate && maxIterations > 1 {
		b.WriteString("\n\nITERATIVE REFINEMENT:\n")
		fmt.Fprintf(&b, "Internally iterate up to %d times. ", maxIterations)
		b.WriteString("After each pass, inspect the result for anatomical errors, era anachronisms, ")
		b.WriteString("and style drift, then correct before the next pass.")
	}

	b.WriteString("\n\nQUALITY CHECKS:\n")
	b.WriteString("Verify before finishing: face is sharp and centered, lighting is consistent, ")
	b.WriteString("period clothing and grooming match the era, no modern artifacts are present.")

	return b.String()
}

func subjectSection(bio *domain.Biography) string {
	var b strings.Builder
	b.WriteString("SUBJECT:\n")
	fmt.Fprintf(&b, "Name: %s\n", bio.Name)
	fmt.Fprintf(&b, "Era: %s\n", bio.Era)
	fmt.Fprintf(&b, "Lifespan: %s\n", bio.YearsLabel())

	if len(bio.AppearanceNotes) > 0 {
		b.WriteString("Documented appearance:\n")
		for _, note := range bio.AppearanceNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}

	fmt.Fprintf(&b, "Context: %s", bio.HistoricalContext)
	return b.String()
}

func referenceSection(refs []domain.ReferenceImage) string {
	var b strings.Builder
	b.WriteString("REFERENCE IMAGES:\n")
	b.WriteString("The attached images are authentic historical references. ")
	b.WriteString("Match the subject's facial structure and features to them.\n")

	listed := refs
	if len(listed) > maxListedReferences {
		listed = listed[:maxListedReferences]
	}
	for _, ref := range listed {
		fmt.Fprintf(&b, "- %s (authenticity %.0f%%)\n", ref.Source, ref.AuthenticityScore*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func compositionSection() string {
	return `COMPOSITION:
Vertical portrait, 3:4 aspect ratio.
The face occupies 80-90% of the frame.
Eyes positioned in the upper third.
Subject gazes directly at the viewer.`
}

func styleSection(style domain.Style) string {
	var directive string
	switch style {
	case domain.StyleBW:
		directive = "Black and white photographic portrait in the manner of Yousuf Karsh: " +
			"dramatic monochrome, deep blacks, controlled highlights, fine grain."
	case domain.StyleSepia:
		directive = "Vintage sepia photograph as produced between the 1890s and 1920s: " +
			"warm brown tones, soft falloff, period-appropriate plate texture."
	case domain.StyleColor:
		directive = "Photorealistic color portrait with accurate skin tones and " +
			"natural studio lighting."
	case domain.StylePainting:
		directive = "Hyperrealist oil painting in the manner of John Singer Sargent: " +
			"confident brushwork, rich pigment, painterly edges."
	default:
		directive = "Photorealistic portrait."
	}
	return "STYLE:\n" + directive
}

func textRenderingSection(nativeText bool) string {
	if nativeText {
		return `TEXT:
DO NOT render any text, captions, signatures, or watermarks in the image.
The subject's name and years are added programmatically after generation.`
	}
	return `TEXT:
Leave the lower portion of the frame visually simple; a caption bar is composited there afterwards.`
}

func qualitySection() string {
	return `QUALITY REQUIREMENTS:
Museum-grade output. Sharp focus on the face, clean edges, no distortion,
no duplicated features, no artifacts.`
}

func physicsSection() string {
	return `PHYSICAL PLAUSIBILITY:
Light sources must be consistent across the face, clothing, and background.
Anatomy must be correct: symmetric features, natural proportions, plausible posture.
Fabric, hair, and skin must reflect light according to their material.
Depth of field must match a period portrait lens.`
}

func factCheckingSection(bio *domain.Biography) string {
	return fmt.Sprintf(`FACT CHECKING:
Use search grounding to verify the portrait conventions, clothing, and
grooming of %s before rendering. The subject lived %s; nothing in the
image may postdate that period.`, bio.Era, bio.YearsLabel())
}

func finalDirectives() string {
	return `FINAL DIRECTIVES:
The portrait must be dignified and respectful of the subject.
Render a single subject, head and shoulders, museum-grade quality.`
}
