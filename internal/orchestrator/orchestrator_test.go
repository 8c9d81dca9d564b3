package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/evaluator"
	"github.com/kapu/portrait-gen-go/internal/imaging"
	promptpkg "github.com/kapu/portrait-gen-go/internal/prompt"
	"github.com/kapu/portrait-gen-go/internal/service/ai"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

type fakeResearcher struct {
	failFor map[string]bool
	calls   int
}

func (f *fakeResearcher) Research(_ context.Context, name string) (*domain.Biography, error) {
	f.calls++
	if f.failFor[name] {
		return nil, errors.NewResearchError("no records found", name, nil)
	}
	death := 1852
	return &domain.Biography{
		Name:              name,
		BirthYear:         1815,
		DeathYear:         &death,
		Era:               "Victorian England",
		HistoricalContext: "Test subject",
	}, nil
}

type fakeAcquirer struct {
	mu       sync.Mutex
	failFor  map[domain.Style]bool
	calls    int
	prompts  []string
	imgBytes []byte
}

func (f *fakeAcquirer) Acquire(_ context.Context, prompt string, style domain.Style, _ []string) (*ai.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.failFor[style] {
		return nil, errors.NewGenerationError("backend rejected prompt", style.String(), 2, nil)
	}
	return &ai.GenerationResult{Data: f.imgBytes, Confidence: 0.9}, nil
}

type fakeFinder struct {
	maxImages int
	calls     int
}

func (f *fakeFinder) Find(_ context.Context, _ *domain.Biography, maxImages int) ([]domain.ReferenceImage, error) {
	f.calls++
	f.maxImages = maxImages
	return nil, nil
}

func (f *fakeFinder) Download(_ context.Context, _ []domain.ReferenceImage) ([]string, error) {
	return nil, nil
}

func (f *fakeFinder) Cleanup() error { return nil }

// generatedImage is what the fake backend "generates": a 3:4 gradient
// frame with enough content to pass the pixel checks.
func generatedImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 600, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 600; x++ {
			v := uint8(40 + x*160/600)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	orch       *Orchestrator
	researcher *fakeResearcher
	acquirer   *fakeAcquirer
	outputDir  string
}

func newFixture(t *testing.T, modelName string, finder ReferenceFinder, maxRefs int) *fixture {
	t.Helper()
	logger := zap.NewNop()
	researcher := &fakeResearcher{failFor: map[string]bool{}}
	acquirer := &fakeAcquirer{failFor: map[domain.Style]bool{}, imgBytes: generatedImage(t)}
	outputDir := t.TempDir()

	orch := New(Deps{
		Researcher:         researcher,
		Finder:             finder,
		Composer:           promptpkg.NewComposer(),
		Acquirer:           acquirer,
		Compositor:         imaging.NewCompositor("", logger),
		Strategy:           evaluator.BasicStrategy{Inner: evaluator.New(768, 1024, logger)},
		Adapter:            capability.NewAdapter(modelName, logger),
		OutputDir:          outputDir,
		MaxReferenceImages: maxRefs,
	}, logger)

	return &fixture{orch: orch, researcher: researcher, acquirer: acquirer, outputDir: outputDir}
}

func TestGenerateWritesOutputs(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)

	result, err := f.orch.Generate(context.Background(), "Ada Lovelace", []domain.Style{domain.StyleBW}, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}

	imagePath := filepath.Join(f.outputDir, "AdaLovelace_BW.png")
	if result.Files[domain.StyleBW] != imagePath {
		t.Errorf("file path = %q, want %q", result.Files[domain.StyleBW], imagePath)
	}
	if _, err := os.Stat(imagePath); err != nil {
		t.Fatalf("output image missing: %v", err)
	}

	promptPath := filepath.Join(f.outputDir, "AdaLovelace_BW_prompt.md")
	if result.Prompts[domain.StyleBW] != promptPath {
		t.Errorf("prompt path = %q, want %q", result.Prompts[domain.StyleBW], promptPath)
	}
	sidecar, err := os.ReadFile(promptPath)
	if err != nil {
		t.Fatalf("prompt sidecar missing: %v", err)
	}
	if !strings.Contains(string(sidecar), "SUBJECT:") {
		t.Error("sidecar does not contain the generation prompt")
	}

	eval := result.Evaluations[domain.StyleBW]
	if eval == nil {
		t.Fatal("evaluation missing")
	}
	if got := eval.Scores[domain.CriterionTechnical]; got != 1.0 {
		t.Errorf("technical = %.2f, want 1.0 (feedback: %v)", got, eval.Feedback)
	}

	// Saved file is the finished 768x1024 portrait with the caption bar.
	file, err := os.Open(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	saved, err := png.Decode(file)
	if err != nil {
		t.Fatalf("saved file is not a PNG: %v", err)
	}
	if saved.Bounds().Dx() != 768 || saved.Bounds().Dy() != 1024 {
		t.Errorf("saved size = %v", saved.Bounds())
	}
	if !imaging.Validate(saved) {
		t.Error("saved portrait has no detectable caption bar")
	}
}

func TestGenerateLegacyModelUsesSimplePrompt(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)

	if _, err := f.orch.Generate(context.Background(), "Ada Lovelace", []domain.Style{domain.StyleColor}, false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(f.acquirer.prompts) != 1 {
		t.Fatalf("prompts = %d", len(f.acquirer.prompts))
	}
	p := f.acquirer.prompts[0]
	if strings.Contains(p, "INTERNAL REASONING:") || strings.Contains(p, "REFERENCE IMAGES:") {
		t.Error("legacy model should get the minimal prompt")
	}
}

func TestGenerateFullModelUsesEnhancedPrompt(t *testing.T) {
	finder := &fakeFinder{}
	f := newFixture(t, capability.ModelGemini3ProImage, finder, 2)

	if _, err := f.orch.Generate(context.Background(), "Ada Lovelace", []domain.Style{domain.StyleColor}, false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if finder.calls != 1 {
		t.Fatalf("finder calls = %d, want 1", finder.calls)
	}
	if finder.maxImages != 2 {
		t.Errorf("reference budget = %d, want capped at 2", finder.maxImages)
	}

	p := f.acquirer.prompts[0]
	for _, want := range []string{"INTERNAL REASONING:", "ITERATIVE REFINEMENT:", "PHYSICAL PLAUSIBILITY:", "FACT CHECKING:"} {
		if !strings.Contains(p, want) {
			t.Errorf("full-capability prompt missing %q", want)
		}
	}
}

func TestGenerateIdempotentSkip(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	ctx := context.Background()
	styles := []domain.Style{domain.StyleBW}

	first, err := f.orch.Generate(ctx, "Ada Lovelace", styles, false)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	imagePath := first.Files[domain.StyleBW]
	info1, err := os.Stat(imagePath)
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.orch.Generate(ctx, "Ada Lovelace", styles, false)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if f.acquirer.calls != 1 {
		t.Errorf("acquirer calls = %d, existing output should be skipped", f.acquirer.calls)
	}
	info2, err := os.Stat(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("existing output file was rewritten")
	}
	if second.Evaluations[domain.StyleBW] == nil {
		t.Error("skipped style should still be re-evaluated")
	}
	if !second.Success {
		t.Errorf("skip run should succeed: %v", second.Errors)
	}
}

func TestGenerateForceRegenerates(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	ctx := context.Background()
	styles := []domain.Style{domain.StyleBW}

	if _, err := f.orch.Generate(ctx, "Ada Lovelace", styles, false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orch.Generate(ctx, "Ada Lovelace", styles, true); err != nil {
		t.Fatal(err)
	}

	if f.acquirer.calls != 2 {
		t.Errorf("acquirer calls = %d, force should regenerate", f.acquirer.calls)
	}
}

func TestGenerateResearchFailure(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	f.researcher.failFor["Nobody Realperson"] = true

	result, err := f.orch.Generate(context.Background(), "Nobody Realperson", []domain.Style{domain.StyleBW}, false)
	if err != nil {
		t.Fatalf("research failure should yield a failed result, not an error: %v", err)
	}

	if result.Success {
		t.Error("result must not be successful")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "research") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.Biography == nil || result.Biography.Name != "Nobody Realperson" || result.Biography.Era != "Unknown Era" {
		t.Errorf("stub biography = %+v", result.Biography)
	}
	if f.acquirer.calls != 0 {
		t.Error("no generation should happen without a biography")
	}
}

func TestGenerateStyleFailureIsolated(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	f.acquirer.failFor[domain.StyleSepia] = true

	result, err := f.orch.Generate(context.Background(), "Ada Lovelace",
		[]domain.Style{domain.StyleBW, domain.StyleSepia}, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Success {
		t.Error("partial failure must not count as success")
	}
	if _, ok := result.Files[domain.StyleBW]; !ok {
		t.Error("successful style should still produce a file")
	}
	if _, ok := result.Files[domain.StyleSepia]; ok {
		t.Error("failed style must not report a file")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Sepia") {
		t.Errorf("errors = %v", result.Errors)
	}
	sepiaEval := result.Evaluations[domain.StyleSepia]
	if sepiaEval == nil || sepiaEval.Passed {
		t.Error("failed style should carry a failed evaluation")
	}
}

type failingStrategy struct {
	err error
}

func (s failingStrategy) Evaluate(context.Context, image.Image, *domain.Biography, domain.Style) (*domain.EvaluationResult, error) {
	return nil, s.err
}

func newFailingEvalFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	researcher := &fakeResearcher{failFor: map[string]bool{}}
	acquirer := &fakeAcquirer{failFor: map[domain.Style]bool{}, imgBytes: generatedImage(t)}
	outputDir := t.TempDir()

	orch := New(Deps{
		Researcher: researcher,
		Composer:   promptpkg.NewComposer(),
		Acquirer:   acquirer,
		Compositor: imaging.NewCompositor("", logger),
		Strategy:   failingStrategy{err: fmt.Errorf("scoring backend unavailable")},
		Adapter:    capability.NewAdapter("legacy-test-model", logger),
		OutputDir:  outputDir,
	}, logger)

	return &fixture{orch: orch, researcher: researcher, acquirer: acquirer, outputDir: outputDir}
}

func TestGenerateEvaluationFailureKeepsFile(t *testing.T) {
	f := newFailingEvalFixture(t)

	result, err := f.orch.Generate(context.Background(), "Ada Lovelace", []domain.Style{domain.StyleBW}, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	imagePath, ok := result.Files[domain.StyleBW]
	if !ok {
		t.Fatalf("generated file missing from result: errors=%v", result.Errors)
	}
	if _, err := os.Stat(imagePath); err != nil {
		t.Fatalf("saved file missing from disk: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("evaluation failure must not surface as a style error: %v", result.Errors)
	}

	eval := result.Evaluations[domain.StyleBW]
	if eval == nil {
		t.Fatal("expected a failed evaluation record")
	}
	if eval.Passed {
		t.Error("failed evaluation must not pass")
	}
	if len(eval.Issues) == 0 || !strings.Contains(eval.Issues[0], "scoring backend unavailable") {
		t.Errorf("issues = %v, want the scoring error recorded", eval.Issues)
	}
	if !result.Success {
		t.Errorf("generated file should still count as success: %v", result.Errors)
	}
}

func TestGenerateEvaluationFailureOnExistingFile(t *testing.T) {
	f := newFailingEvalFixture(t)
	ctx := context.Background()
	styles := []domain.Style{domain.StyleBW}

	first, err := f.orch.Generate(ctx, "Ada Lovelace", styles, false)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	imagePath := first.Files[domain.StyleBW]
	info1, err := os.Stat(imagePath)
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.orch.Generate(ctx, "Ada Lovelace", styles, false)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if f.acquirer.calls != 1 {
		t.Errorf("acquirer calls = %d, existing output should be skipped", f.acquirer.calls)
	}
	if second.Files[domain.StyleBW] != imagePath {
		t.Errorf("existing file missing from result: files=%v errors=%v", second.Files, second.Errors)
	}
	info2, err := os.Stat(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("existing output file was rewritten")
	}
	if eval := second.Evaluations[domain.StyleBW]; eval == nil || eval.Passed {
		t.Error("re-evaluation failure should record a failed evaluation")
	}
}

func TestGenerateInvalidArguments(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	ctx := context.Background()

	if _, err := f.orch.Generate(ctx, "", []domain.Style{domain.StyleBW}, false); err == nil {
		t.Error("empty subject accepted")
	}
	if _, err := f.orch.Generate(ctx, "Ada Lovelace", nil, false); err == nil {
		t.Error("empty style list accepted")
	}
	if _, err := f.orch.Generate(ctx, "Ada Lovelace", []domain.Style{domain.Style("Neon")}, false); err == nil {
		t.Error("unknown style accepted")
	}
	if f.acquirer.calls != 0 {
		t.Error("invalid arguments must not reach the backend")
	}
}

func TestGenerateBatchIsolation(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	f.researcher.failFor["Middle Failure"] = true

	subjects := []string{"Ada Lovelace", "Middle Failure", "Alan Turing"}
	results := f.orch.GenerateBatch(context.Background(), subjects, []domain.Style{domain.StyleBW}, false)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("healthy subjects should succeed: %v, %v", results[0].Errors, results[2].Errors)
	}
	if results[1].Success {
		t.Error("failing subject should not succeed")
	}
	for i, subject := range subjects {
		if results[i].Subject != subject {
			t.Errorf("result %d subject = %q, want %q", i, results[i].Subject, subject)
		}
	}
}

func TestCheckExisting(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)
	ctx := context.Background()

	existing := f.orch.CheckExisting("Ada Lovelace", []domain.Style{domain.StyleBW, domain.StyleSepia})
	if existing[domain.StyleBW] || existing[domain.StyleSepia] {
		t.Error("nothing generated yet")
	}

	if _, err := f.orch.Generate(ctx, "Ada Lovelace", []domain.Style{domain.StyleBW}, false); err != nil {
		t.Fatal(err)
	}

	existing = f.orch.CheckExisting("Ada Lovelace", []domain.Style{domain.StyleBW, domain.StyleSepia})
	if !existing[domain.StyleBW] {
		t.Error("generated style should be reported existing")
	}
	if existing[domain.StyleSepia] {
		t.Error("ungenerated style reported existing")
	}
}

func TestSanitizedFilenames(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)

	result, err := f.orch.Generate(context.Background(), "Marie Curie-Skłodowska", []domain.Style{domain.StyleColor}, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := filepath.Join(f.outputDir, "MarieCurie-Skodowska_Color.png")
	if result.Files[domain.StyleColor] != want {
		t.Errorf("file = %q, want %q", result.Files[domain.StyleColor], want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("sanitized output missing: %v", err)
	}
}

func TestGenerateParallelStyles(t *testing.T) {
	f := newFixture(t, "legacy-test-model", nil, 0)

	result, err := f.orch.Generate(context.Background(), "Ada Lovelace", domain.AllStyles(), false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !result.Success {
		t.Fatalf("errors: %v", result.Errors)
	}
	if len(result.Files) != 4 {
		t.Errorf("files = %d, want 4", len(result.Files))
	}
	for _, style := range domain.AllStyles() {
		path := result.Files[style]
		if path == "" {
			t.Errorf("style %s missing file", style)
			continue
		}
		base := filepath.Base(path)
		if base != fmt.Sprintf("AdaLovelace_%s.png", style) {
			t.Errorf("file name = %q", base)
		}
	}
}
