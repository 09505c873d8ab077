package main

import "github.com/Captainsparrow404/neuvii-backend/cmd"

func main() {
	cmd.Execute()
}
