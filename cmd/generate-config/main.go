package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/allgemeinbildung/abubox/internal/config"
)

func main() {
	cfg := config.Default()

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	header := "# abubox configuration example\n# Copy this file to config.yaml and customize as needed.\n" +
		"# Secrets can also come from " + config.EnvRedisURL + ", " + config.EnvS3AccessKeyID +
		" and " + config.EnvS3SecretAccessKey + ".\n\n"
	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
