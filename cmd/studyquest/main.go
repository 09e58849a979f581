// Command studyquest is the terminal front end of StudyQuest.
//
// Configuration comes from the environment and an optional .env file; see
// config.Load for the variables. STORE_DRIVER picks memory, sqlite (default)
// or postgres; REDIS_ENABLED moves sessions from local files to Redis.
package main

import (
	"os"

	"github.com/studyquest/studyquest/internal/interface/cli"
)

func main() {
	os.Exit(cli.Execute())
}
