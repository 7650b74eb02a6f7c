package main

import "github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/cmd"

func main() {
	cmd.Execute()
}
