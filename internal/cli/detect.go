package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/imaging"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Locate the lunar disk and report detection confidence",
	Long: `Detect finds the brightest circular region in the photo, fits a circle
to its boundary, and reports the composite detection confidence with its
sub-scores as JSON on stdout.

An image with no usable moon is not an error: the result carries the
failure reason ("no_candidate", "degenerate_fit", or "low_confidence").`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

// detectOutput mirrors the MCP detect_moon response shape.
type detectOutput struct {
	*detect.Result
	Crop *cropRect `json:"crop,omitempty"`
}

type cropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	cache := imaging.NewImageCache()
	img, err := cache.Load(args[0])
	if err != nil {
		return err
	}

	res, err := detect.DetectImage(img, detect.DefaultConfig())
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out := detectOutput{Result: res}
	if !res.CropRect.Empty() {
		out.Crop = &cropRect{
			X:      res.CropRect.Min.X,
			Y:      res.CropRect.Min.Y,
			Width:  res.CropRect.Dx(),
			Height: res.CropRect.Dy(),
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
