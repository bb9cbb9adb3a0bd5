// Package main 打印曲线采样，用于核对曲线形状
//
// Usage:
//
//	go run ./cmd/curvedump [flags]
//
// Flags:
//
//	--kind <name>         曲线族：easeInOut 或 bounceInOut，all 表示全部（默认 all）
//	--midpoint <v>        中点，默认 0.5
//	--curvature <v>       曲率 [0,1]，默认 0.5
//	--samples <n>         采样点数，默认 11
//	--format <table|yaml> 输出格式，默认 table
//
// Example:
//
//	go run ./cmd/curvedump --kind=bounceInOut --midpoint=0.3 --curvature=0.8 --format=yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/decker502/floatrand/pkg/curve"
	"gopkg.in/yaml.v3"
)

var (
	kindFlag      = flag.String("kind", "all", "Curve kind (easeInOut, bounceInOut, all)")
	midpointFlag  = flag.Float64("midpoint", 0.5, "Curve midpoint")
	curvatureFlag = flag.Float64("curvature", 0.5, "Curve curvature in [0,1]")
	samplesFlag   = flag.Int("samples", 11, "Number of samples")
	formatFlag    = flag.String("format", "table", "Output format (table, yaml)")
)

// curveDump 一个曲线族的采样结果
type curveDump struct {
	Kind      string    `yaml:"kind"`
	Midpoint  float64   `yaml:"midpoint"`
	Curvature float64   `yaml:"curvature"`
	Exponent  float64   `yaml:"exponent"`
	X         []float64 `yaml:"x"`
	Y         []float64 `yaml:"y"`
}

func main() {
	flag.Parse()

	kinds, err := selectKinds(*kindFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	dumps := make([]curveDump, 0, len(kinds))
	for _, kind := range kinds {
		dumps = append(dumps, dump(curve.NewShape(kind, *midpointFlag, *curvatureFlag), *samplesFlag))
	}

	switch *formatFlag {
	case "table":
		err = writeTable(os.Stdout, dumps)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		err = enc.Encode(dumps)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = fmt.Errorf("unknown format %q", *formatFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// selectKinds 解析 --kind
func selectKinds(name string) ([]curve.Kind, error) {
	if name == "all" {
		return curve.Kinds(), nil
	}
	kind, err := curve.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return []curve.Kind{kind}, nil
}

// dump 采样曲线（中点和曲率按 NewShape 钳制后的值输出）
func dump(shape curve.Shape, n int) curveDump {
	ys := shape.Sample(n)
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i) / float64(len(ys)-1)
	}
	return curveDump{
		Kind:      shape.Kind().String(),
		Midpoint:  shape.Midpoint(),
		Curvature: shape.Curvature(),
		Exponent:  shape.Exponent(),
		X:         xs,
		Y:         ys,
	}
}

// writeTable 每个曲线族一列
func writeTable(w io.Writer, dumps []curveDump) error {
	if len(dumps) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "x\t")
	for _, d := range dumps {
		fmt.Fprintf(tw, "%s (exp %.3f)\t", d.Kind, d.Exponent)
	}
	fmt.Fprintln(tw)

	for i, x := range dumps[0].X {
		fmt.Fprintf(tw, "%.3f\t", x)
		for _, d := range dumps {
			fmt.Fprintf(tw, "%.4f\t", d.Y[i])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
