// Command replica runs one bulletin-board replica: it registers with a
// primary's coordinator, learns its assigned consistency policy and replica
// id, then serves client and coordinator traffic on one listening socket.
//
// Usage: replica client_port coordinator_port
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/policy"
	"github.com/dreamware/bboard/internal/replica"
	"github.com/dreamware/bboard/internal/wire"
)

const usage = "replica client_port coordinator_port"

func main() {
	clientPort := netutil.MustIntArg(1, usage)
	coordinatorPort := netutil.MustIntArg(2, usage)
	coordAddr := netutil.DialAddr(coordinatorPort)
	delay := netutil.DefaultDelay()

	policyName, replicaID := register(coordAddr, clientPort)
	log.Printf("replica registered as id %d under %s policy", replicaID, policyName)

	store := message.NewStore()
	pol := buildPolicy(policyName, store, coordAddr, replicaID, delay)
	r := replica.New(store, pol, delay)

	ln, err := net.Listen("tcp", netutil.Addr(clientPort))
	if err != nil {
		log.Fatalf("listen on %d: %v", clientPort, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		log.Printf("replica listening on :%d", clientPort)
		if err := r.Serve(ctx, ln); err != nil {
			log.Printf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	time.Sleep(100 * time.Millisecond)
	log.Println("replica stopped")
}

// register sends REGISTER::client_port to the coordinator, retrying on
// failure to tolerate the coordinator starting up slightly after replicas
// do, and returns the assigned policy name and replica id.
func register(coordAddr string, clientPort int) (string, int) {
	var lastErr error
	for i := 0; i < 10; i++ {
		resp, err := netutil.Exchange(context.Background(), coordAddr, wire.EncodeRegister(clientPort), netutil.NoDelay())
		if err == nil {
			policyName, id, err := wire.DecodeRegisterReply(resp)
			if err == nil {
				return policyName, id
			}
			lastErr = err
		} else {
			lastErr = err
		}
		log.Printf("register retry %d: %v", i+1, lastErr)
		time.Sleep(400 * time.Millisecond)
	}
	log.Fatalf("failed to register with coordinator: %v", lastErr)
	return "", 0
}

func buildPolicy(name string, store *message.Store, coordAddr string, replicaID int, delay netutil.Delay) policy.Policy {
	switch policy.Name(name) {
	case policy.Quorum:
		return policy.NewQuorum(store, coordAddr, replicaID, delay)
	case policy.RYW:
		return policy.NewRYW(store, coordAddr, replicaID, delay)
	case policy.Sequential:
		return policy.NewSequential(store, coordAddr, delay)
	default:
		log.Printf("replica: unknown policy %q from coordinator, defaulting to sequential", name)
		return policy.NewSequential(store, coordAddr, delay)
	}
}
