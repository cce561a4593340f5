package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
	"bim-gateway/internal/assembler/service"
	"bim-gateway/internal/assembler/step"
	"bim-gateway/internal/common/logging"

	"go.uber.org/zap"
)

// ============================================================
// bimgen: assemble a model description into .ifc and .json
// ============================================================

type options struct {
	specPath string
	outDir   string
	name     string
	embed    bool
	quiet    bool
	env      string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("bimgen", flag.ContinueOnError)
	fs.StringVar(&o.specPath, "spec", "", "model description (.yaml, .yml or .json); built-in demo when empty")
	fs.StringVar(&o.outDir, "out", ".", "output directory")
	fs.StringVar(&o.name, "name", "", "base name of the written files (default: project name)")
	fs.BoolVar(&o.embed, "embed-mesh", true, "attach Pset_CustomGeometry with each element's mesh JSON")
	fs.BoolVar(&o.quiet, "quiet", false, "do not print the mesh document")
	fs.StringVar(&o.env, "env", "production", "logging environment")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	logger, err := logging.New(opts.env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	spec, err := loadSpec(opts.specPath)
	if err != nil {
		logger.Fatal("load spec", zap.String("path", opts.specPath), zap.Error(err))
	}

	asm := assemble.New(mesh.Default(), logger, assemble.WithEmbeddedGeometry(opts.embed))
	res, err := asm.Assemble(context.Background(), spec)
	if err != nil {
		logger.Fatal("assemble", zap.Error(err))
	}

	base := opts.name
	if base == "" {
		base = spec.Hierarchy.Project
	}

	ifc, err := step.Marshal(res.Graph, step.Header{
		FileName:    base + ".ifc",
		Application: "bimgen",
		Timestamp:   time.Now(),
	})
	if err != nil {
		logger.Fatal("encode ifc", zap.Error(err))
	}
	meshJSON, err := service.EncodeMesh(res.Mesh, true)
	if err != nil {
		logger.Fatal("encode mesh", zap.Error(err))
	}

	// an empty model id writes straight into the output directory
	ifcPath, meshPath, err := service.NewFileStorage(opts.outDir).WriteModel("", base, ifc, meshJSON)
	if err != nil {
		logger.Fatal("write model", zap.Error(err))
	}

	logger.Info("model written",
		zap.String("ifc", ifcPath),
		zap.String("mesh", meshPath),
		zap.Int("elements", len(res.Graph.Elements)))

	if !opts.quiet {
		fmt.Println(string(meshJSON))
	}
}

func loadSpec(path string) (models.ModelSpec, error) {
	if path == "" {
		return assemble.DemoSpec(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return models.ModelSpec{}, err
	}
	defer f.Close()
	return assemble.DecodeSpec(f, filepath.Ext(path))
}
