package main

import (
	"github.com/cliniccall/patientsim/cmd"
	_ "github.com/cliniccall/patientsim/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
