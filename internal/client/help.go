package client

import (
	"fmt"
	"io"
)

func PrintHelpInfo(out io.Writer) {
	fmt.Fprintln(out,
		"Usage:\n"+
			"	-c <args...> ------------ send a command to the target\n"+
			"	-d <offset> <file> ------ write file to target memory at base + offset\n"+
			"	help -------------------- show this message\n"+
			"	close ------------------- leave")
}
