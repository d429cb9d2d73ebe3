package codes

import (
	"fmt"
	"strings"

	"github.com/ruteri/lawsign-backend/interfaces"
)

const subject = "Document signature code"

func composeMessage(req IssueRequest, code string) interfaces.Message {
	var body strings.Builder
	validity := fmt.Sprintf("The code is valid for %d minutes.", int(interfaces.CodeTTL.Minutes()))

	switch req.Role {
	case interfaces.RoleLawyer:
		if req.ClientName != "" {
			fmt.Fprintf(&body, "Signature code for the document of client %s:\n\n", req.ClientName)
			fmt.Fprintf(&body, "Your code: %s\n\n", code)
		} else {
			fmt.Fprintf(&body, "Your document signature code: %s\n\n", code)
		}
		fmt.Fprintf(&body, "%s\n\nThe document will be signed once you enter the code.\n", validity)
	default:
		if req.RecipientName != "" {
			fmt.Fprintf(&body, "Dear %s,\n\n", req.RecipientName)
		}
		fmt.Fprintf(&body, "Your document signature code: %s\n\n", code)
		fmt.Fprintf(&body, "%s\n\nOnce signed, the document becomes legally binding.\n", validity)
		if req.RecipientName != "" {
			body.WriteString("\nKind regards,\nElectronic document service\n")
		}
	}

	return interfaces.Message{
		To:      req.Recipient,
		Subject: subject,
		Body:    body.String(),
	}
}
