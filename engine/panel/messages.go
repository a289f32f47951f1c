package panel

import (
	"encoding/json"
	"errors"
)

const (
	messageTypeTriggers = "triggers"
	messageTypeInvoke   = "invoke"
	messageTypeList     = "list"
	messageTypeAck      = "ack"
	messageTypeError    = "error"
)

// clientMessage is a message sent by the control page.
type clientMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// triggersMessage announces the current trigger list.
type triggersMessage struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

// ackMessage confirms that a trigger was queued.
type ackMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// errorMessage rejects a client message.
type errorMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// decodeClientMessage parses a client payload.
func decodeClientMessage(payload []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Type == "" {
		return msg, errors.New("missing message type")
	}
	return msg, nil
}

// controlPage is a minimal control panel listing one button per trigger.
const controlPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>vanguard</title></head>
<body>
<h3>Animations</h3>
<div id="triggers"></div>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
const list = document.getElementById("triggers");
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type !== "triggers") return;
  list.replaceChildren(...msg.names.map((name) => {
    const b = document.createElement("button");
    b.textContent = name;
    b.onclick = () => ws.send(JSON.stringify({type: "invoke", name}));
    return b;
  }));
};
</script>
</body>
</html>
`
