// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/bandage/cmd/bandage/cmd"
)

func main() {
	cmd.Execute()
}
