package protocol

import "encoding/json"

// Command type discriminators understood by the VMC.
const (
	CommandStatus = "status"
	CommandVend   = "vend"
)

// Command is a single outbound frame for the vending-machine controller.
type Command struct {
	Type  string `json:"type"`
	Items []int  `json:"items,omitempty"`
}

// StatusCommand builds the status probe sent to the VMC.
func StatusCommand() Command {
	return Command{Type: CommandStatus}
}

// VendCommand builds a dispense command for the given catalog slots.
func VendCommand(items []int) Command {
	return Command{Type: CommandVend, Items: items}
}

// Encode serializes the command as a JSON frame.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}
