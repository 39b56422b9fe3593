package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"task-manager/internal/client"
	"task-manager/internal/tui"
)

func main() {
	_ = godotenv.Load()

	defaultAddr := os.Getenv("TASK_API_URL")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:3000"
	}
	addr := flag.String("addr", defaultAddr, "task API base URL")
	flag.Parse()

	model := tui.New(client.New(*addr))

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
