package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/prathamesonar/signature-engine/coords"
)

func CoordsCommand(args []string) {
	coordsFlags := flag.NewFlagSet("coords", flag.ExitOnError)

	var page coords.PageDims
	var zoom float64
	coordsFlags.Float64Var(&page.Width, "page-width", coords.A4Width, "Rendered page width in pixels")
	coordsFlags.Float64Var(&page.Height, "page-height", coords.A4Height, "Rendered page height in pixels")
	coordsFlags.Float64Var(&zoom, "zoom", 1, "Viewer zoom, informational only")

	coordsFlags.Usage = func() {
		fmt.Printf("Usage: %s coords [options] <x> <y> <width> <height>\n\n", os.Args[0])
		fmt.Println("Convert a screen rectangle to PDF points")
		fmt.Println("\nOptions:")
		coordsFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s coords -page-width 1190 -page-height 1684 100 100 240 80\n", os.Args[0])
	}

	if err := coordsFlags.Parse(args); err != nil {
		log.Printf("Failed to parse coords flags: %v", err)
		osExit(1)
		return
	}

	if len(coordsFlags.Args()) != 4 {
		coordsFlags.Usage()
		osExit(1)
		return
	}

	if err := PrintCoords(os.Stdout, coordsFlags.Args(), zoom, page); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// PrintCoords parses x, y, width and height from args and writes the
// mapped rectangle to w as JSON.
func PrintCoords(w io.Writer, args []string, zoom float64, page coords.PageDims) error {
	if len(args) != 4 {
		return fmt.Errorf("expected 4 values, got %d", len(args))
	}
	var v [4]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", a)
		}
		v[i] = f
	}

	c, err := coords.ToPdfCoords(coords.ScreenRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, zoom, page)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
