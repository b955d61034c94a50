package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
)

// Loadenv reads dotenv files into the process environment. Variables that
// are already set keep their values; missing files are skipped.
func Loadenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			log.Printf("No %s file loaded, using system environment variables", f)
		}
	}
}
