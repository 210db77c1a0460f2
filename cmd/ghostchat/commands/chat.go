package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"ghostchat/internal/domain"
	"ghostchat/internal/session"
)

// runChat multiplexes stdin lines and session events until the session
// closes. Slash commands drive the call overlay; everything else is sent
// as chat text.
func runChat(s *session.Session) error {
	lines := make(chan string)
	go func() {
		scan := bufio.NewScanner(os.Stdin)
		for scan.Scan() {
			lines <- scan.Text()
		}
		close(lines)
	}()

	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return nil
			}
			printEvent(ev)
		case line, ok := <-lines:
			if !ok {
				// stdin gone; leave and drain remaining events
				lines = nil
				_ = s.Leave()
				continue
			}
			if quit := handleLine(s, line); quit {
				_ = s.Leave()
			}
		}
	}
}

func handleLine(s *session.Session, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case line == "/quit":
		return true
	case line == "/call":
		if err := s.StartCall(); err != nil {
			fmt.Println("call:", err)
		} else {
			fmt.Println("calling peer...")
		}
	case line == "/accept":
		if err := s.AnswerCall(true); err != nil {
			fmt.Println("accept:", err)
		}
	case line == "/reject":
		if err := s.AnswerCall(false); err != nil {
			fmt.Println("reject:", err)
		}
	case line == "/hangup":
		if err := s.EndCall(); err != nil {
			fmt.Println("hangup:", err)
		}
	case strings.HasPrefix(line, "/"):
		fmt.Println("commands: /call /accept /reject /hangup /quit")
	default:
		if _, err := s.Send(line); err != nil {
			fmt.Println("send:", err)
		}
	}
	return false
}

func printEvent(ev domain.Event) {
	switch ev.Kind {
	case domain.EventRoomReady:
		fmt.Printf("room: %s\nshare this id with your peer to let them join\n", ev.RoomID)
	case domain.EventConnected:
		fmt.Println("peer connected, exchanging keys...")
	case domain.EventSecurityEstablished:
		fmt.Printf("secure channel established\nsafety number: %s\n", ev.Fingerprint)
	case domain.EventMessage:
		fmt.Printf("peer> %s\n", ev.Text)
	case domain.EventAck:
		fmt.Printf("(delivered %d)\n", ev.Counter)
	case domain.EventPeerLeft:
		fmt.Println("peer left the room")
	case domain.EventCallIncoming:
		fmt.Println("incoming call: /accept or /reject")
	case domain.EventCallAnswered:
		if ev.Accepted {
			fmt.Println("call accepted")
		} else {
			fmt.Println("call rejected")
		}
	case domain.EventCallEnded:
		fmt.Println("call ended")
	case domain.EventSecurityAlert:
		fmt.Printf("security alert: %s\n", ev.Text)
	case domain.EventError:
		fmt.Printf("error: %v\n", ev.Err)
	case domain.EventClosed:
		fmt.Println("session closed")
	}
}
