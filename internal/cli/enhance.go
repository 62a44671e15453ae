package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/enhance"
	"github.com/astropaint/moonshine/internal/imaging"
)

var (
	enhancePreset     string
	enhanceStrength   float64
	enhanceOutput     string
	enhanceComparison bool
	enhanceParamsFile string
	enhanceMetricsOut string
	enhanceNoTuner    bool
	enhanceVideoFrame bool
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <image>",
	Short: "Run the confidence-gated enhancement pipeline on a photo",
	Long: `Enhance detects the moon and restores it through the confidence-gated
pipeline: tone mapping, denoising, optional highlight compensation and
deconvolution, wavelet sharpening, micro-contrast, and a limb halo guard.

When detection confidence is below the usable floor the pipeline is not
trusted with the photo; conservative global edits are applied instead and
the result says so. Guardrail adjustments are printed to stderr as
warnings and recorded in the metrics sidecar.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func init() {
	enhanceCmd.Flags().StringVarP(&enhancePreset, "preset", "p", "natural",
		"base parameter set: natural or crisp")
	enhanceCmd.Flags().Float64VarP(&enhanceStrength, "strength", "s", 100,
		"overall enhancement strength, 0-100")
	enhanceCmd.Flags().StringVarP(&enhanceOutput, "out", "o", "",
		"output path (default: <input>_enhanced.png)")
	enhanceCmd.Flags().BoolVar(&enhanceComparison, "comparison", false,
		"write a side-by-side before/after instead of the result alone")
	enhanceCmd.Flags().StringVar(&enhanceParamsFile, "params", "",
		"YAML file with parameter overrides applied on top of the preset")
	enhanceCmd.Flags().StringVar(&enhanceMetricsOut, "metrics", "",
		"write the run's metrics record as JSON to this path")
	enhanceCmd.Flags().BoolVar(&enhanceNoTuner, "no-tuner", false,
		"skip perceptual measurement and use the preset verbatim")
	enhanceCmd.Flags().BoolVar(&enhanceVideoFrame, "video-frame", false,
		"treat the input as a single extracted video frame (stronger denoise)")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	params, err := loadParams(enhancePreset, enhanceStrength, enhanceParamsFile)
	if err != nil {
		return err
	}

	cache := imaging.NewImageCache()
	img, err := cache.Load(inputPath)
	if err != nil {
		return err
	}

	det, err := detect.DetectImage(img, detect.DefaultConfig())
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	outPath := enhanceOutput
	if outPath == "" {
		outPath = defaultOutputPath(inputPath)
	}

	if !det.Detected {
		log.Printf("warning: %s (reason: %s)", enhance.WarnLowConfidence, det.Reason)
		fallback := imaging.ConservativeEnhance(img, enhanceStrength)
		if err := imaging.Save(fallback, outPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "conservative fallback written to %s\n", outPath)
		return nil
	}

	result, err := enhance.Enhance(img, det, enhance.Options{
		Params:       params,
		DisableTuner: enhanceNoTuner,
		VideoFrame:   enhanceVideoFrame,
		Progress: func(stage string, fraction float64) {
			if os.Getenv("MOONSHINE_LOG_LEVEL") == "debug" {
				log.Printf("stage %-20s %3.0f%%", stage, fraction*100)
			}
		},
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		log.Printf("warning: %s", w)
	}

	toSave := result.Image
	if enhanceComparison {
		before := imaging.CropRegion(img, det.CropRect)
		toSave = imaging.SideBySide(before, result.Image)
	}
	if err := imaging.Save(toSave, outPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "enhanced image written to %s\n", outPath)

	if enhanceMetricsOut != "" {
		data, err := json.MarshalIndent(result.Metrics, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}
		if err := os.WriteFile(enhanceMetricsOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// loadParams builds the run parameters: named preset, optional YAML
// overrides on top, then strength scaling last so overridden gains scale
// the same way preset gains do.
func loadParams(preset string, strength float64, paramsFile string) (enhance.Params, error) {
	params := enhance.ByPreset(enhance.Preset(preset))
	if preset != string(enhance.PresetNatural) && preset != string(enhance.PresetCrisp) {
		return params, fmt.Errorf("unknown preset %q (want natural or crisp)", preset)
	}

	if paramsFile != "" {
		data, err := os.ReadFile(paramsFile)
		if err != nil {
			return params, fmt.Errorf("failed to read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return params, fmt.Errorf("failed to parse params file: %w", err)
		}
	}

	return params.WithStrength(strength), nil
}

// defaultOutputPath derives "<name>_enhanced.png" next to the input.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_enhanced.png"
}
