// Command sparsify compacts a timeline JSON file by stripping empty values,
// optionally delta-encoding the tracked participant stats as well. Useful
// for inspecting how much smaller a timeline gets before it is embedded in
// a prompt.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"match-coach/internal/timeline"
)

func main() {
	delta := flag.Bool("delta", false, "Also delta-encode tracked participant stats")
	output := flag.String("o", "", "Output file (default: INPUT.sparse.json)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage:")
		fmt.Println("  sparsify [--delta] [-o OUTPUT] TIMELINE.json")
		return
	}
	inputPath := flag.Arg(0)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", inputPath, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Fatalf("%s is not a JSON object: %v", inputPath, err)
	}

	var result any
	if *delta {
		encoded, err := timeline.Encode(doc, timeline.DefaultEncodeConfig())
		if err != nil {
			log.Fatalf("Delta encoding failed: %v", err)
		}
		result = encoded
	} else {
		result = timeline.Sparsify(doc)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = inputPath + ".sparse.json"
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", outputPath, err)
	}

	fmt.Printf("%s: %s -> %s (%.1f%% of original)\n",
		outputPath, formatBytes(len(data)), formatBytes(len(out)),
		float64(len(out))/float64(len(data))*100)
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
