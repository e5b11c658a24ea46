// Command goecs seeds an in-process Entity-Component-System world from a
// config file and runs its systems.
package main

import "github.com/dbsmedya/goecs/cmd/goecs/cmd"

func main() {
	cmd.Execute()
}
