package main

import "github.com/MeKo-Tech/quadwarp/cmd/quadwarp/cmd"

func main() {
	cmd.Execute()
}
