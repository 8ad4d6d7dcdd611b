package main

import "github.com/MeKo-Tech/tileindex/internal/cmd"

func main() {
	cmd.Execute()
}
