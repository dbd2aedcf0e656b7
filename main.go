/*
genwatch - generated-artifact drift checker

genwatch keeps generated repository artifacts honest: it runs the
external generator programs that produce them and verifies the
checked-in copies are still current.
*/
package main

import "github.com/genwatch/genwatch/cmd"

func main() {
	cmd.Execute()
}
