package main

import "github.com/NdanyuzweGentil/cycling-dashboard/internal/cmd"

func main() {
	cmd.Execute()
}
