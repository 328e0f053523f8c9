package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-jsonform"
	"github.com/goliatone/go-jsonform/internal/jsonx"
	"github.com/goliatone/go-jsonform/internal/logging"
	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/definition"
	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/prompt"
)

func main() {
	formsDir := flag.String("forms", "forms", "directory of YAML/JSON form declarations")
	openapiPath := flag.String("openapi", "", "OpenAPI document path or URL to read a component schema from")
	component := flag.String("component", "", "component schema to build a form from (with -openapi)")
	name := flag.String("form", "", "form to fill")
	dump := flag.Bool("dump", false, "print the rendered document and exit")
	verbose := flag.Bool("v", false, "log codec activity to stderr")
	flag.Parse()

	ctx := context.Background()

	defs, err := loadDefinitions(ctx, *formsDir, *openapiPath, *component)
	if err != nil {
		log.Fatalf("Failed to load forms: %v", err)
	}
	if *name == "" && len(defs) > 0 {
		*name = defs[0].Name()
	}

	var codecOpts []codec.Option
	if *verbose {
		codecOpts = append(codecOpts, codec.WithLogger(logging.NewWriter(os.Stderr, zapcore.DebugLevel)))
	}
	forms, err := jsonform.NewMemory(
		jsonform.WithDefinitions(defs...),
		jsonform.WithCodecOptions(codecOpts...),
	)
	if err != nil {
		log.Fatalf("Failed to register forms: %v", err)
	}

	out, err := forms.Render(ctx, *name)
	if err != nil {
		log.Fatalf("Failed to render %q: %v", *name, err)
	}
	if *dump {
		printJSON(out)
		return
	}

	data, err := prompt.New().Fill(ctx, out)
	if errors.Is(err, prompt.ErrAborted) {
		os.Exit(130)
	}
	if err != nil {
		log.Fatalf("Failed to fill %q: %v", *name, err)
	}

	inst, err := forms.Submit(ctx, *name, data)
	var binding form.BindingErrors
	if errors.As(err, &binding) {
		printJSON(map[string]any{"errors": binding.Fields()})
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Submission rejected: %v", err)
	}
	printJSON(map[string]any{"values": inst.Values(), "actions": inst.Actions()})
}

func loadDefinitions(ctx context.Context, dir, openapiPath, component string) ([]*form.Definition, error) {
	if openapiPath == "" {
		return definition.LoadFS(os.DirFS(dir))
	}
	if component == "" {
		return nil, errors.New("-component is required with -openapi")
	}
	src, err := definition.ParseSource(openapiPath)
	if err != nil {
		return nil, err
	}
	reader := definition.NewReader(
		definition.WithHTTPClient(&http.Client{}),
		definition.WithTimeout(30*time.Second),
	)
	def, err := reader.OpenAPI(ctx, src, component)
	if err != nil {
		return nil, err
	}
	return []*form.Definition{def}, nil
}

func printJSON(v any) {
	raw, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(raw))
}
