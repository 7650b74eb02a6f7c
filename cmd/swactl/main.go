package main

import "github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swactl/cmd"

func main() {
	cmd.Execute()
}
