package main

import "github.com/tessro/plexplay/internal/cli"

func main() {
	cli.Execute()
}
