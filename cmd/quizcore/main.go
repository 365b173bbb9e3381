package main

import (
	"fmt"
	"os"

	"github.com/studybot/quizcore/pkg/app"
)

func main() {
	if err := app.Run("quizcore", "QUIZCORE_BOT_TOKEN"); err != nil {
		fmt.Fprintf(os.Stderr, "quizcore: %v\n", err)
		os.Exit(1)
	}
}
