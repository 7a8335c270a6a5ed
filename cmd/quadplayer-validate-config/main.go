package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fosdem/quadplayer/lib/config"
	"github.com/fosdem/quadplayer/lib/rendering/shaders"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <config file>", os.Args[0])
	}
	cfg, err := config.Parse(os.Args[1])
	if err != nil {
		fmt.Printf("Config invalid: %s\n", err)
		os.Exit(1)
	}

	fmt.Print("Config valid!\n\n")

	fmt.Print(cfg)

	shaderer, err := shaders.NewShaderer()
	if err != nil {
		fmt.Printf("Shaders invalid: %s\n", err)
		os.Exit(1)
	}
	data := shaders.DefaultShaderData()
	for _, name := range shaderer.TemplateNames() {
		src, err := shaderer.GetShaderSource(name, data)
		if err != nil {
			fmt.Printf("Shader %s invalid: %s\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("\n--- %s ---\n%s", name, src)
	}
}
