// Command primary runs the primary process: a coordinator driving one
// consistency policy over the registered replicas, plus a replica of its
// own that registers with that coordinator over loopback exactly like any
// other replica would.
//
// Usage: primary client_port coordinator_port policy [Nw [Nr]]
// policy is one of sequential, quorum, ryw. An unknown policy falls back to
// sequential with a warning.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dreamware/bboard/internal/coordinator"
	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/policy"
	"github.com/dreamware/bboard/internal/replica"
	"github.com/dreamware/bboard/internal/wire"
)

const usage = "primary client_port coordinator_port policy [Nw [Nr]]"

func main() {
	clientPort := netutil.MustIntArg(1, usage)
	coordinatorPort := netutil.MustIntArg(2, usage)
	policyName := parsePolicyArg(netutil.MustArg(3, usage))
	writeQuorum := netutil.OptionalIntArg(4, 0)
	readQuorum := netutil.OptionalIntArg(5, 0)
	delay := netutil.DefaultDelay()

	coord := coordinator.New(policyName, writeQuorum, readQuorum, delay)

	coordLn, err := net.Listen("tcp", netutil.Addr(coordinatorPort))
	if err != nil {
		log.Fatalf("listen on %d: %v", coordinatorPort, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		log.Printf("coordinator listening on :%d, policy %s", coordinatorPort, policyName)
		if err := coord.Serve(ctx, coordLn); err != nil {
			log.Printf("coordinator serve: %v", err)
		}
	}()

	var sync *coordinator.SyncLoop
	if policyName == policy.Quorum {
		sync = coord.StartSync(ctx)
	}

	coordAddr := netutil.DialAddr(coordinatorPort)
	registeredPolicy, replicaID := register(coordAddr, clientPort)
	log.Printf("primary's own replica registered as id %d under %s policy", replicaID, registeredPolicy)

	store := message.NewStore()
	pol := buildPolicy(registeredPolicy, store, coordAddr, replicaID, delay)
	r := replica.New(store, pol, delay)

	replicaLn, err := net.Listen("tcp", netutil.Addr(clientPort))
	if err != nil {
		log.Fatalf("listen on %d: %v", clientPort, err)
	}
	go func() {
		log.Printf("replica listening on :%d", clientPort)
		if err := r.Serve(ctx, replicaLn); err != nil {
			log.Printf("replica serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	if sync != nil {
		sync.Stop()
	}
	time.Sleep(100 * time.Millisecond)
	log.Println("primary stopped")
}

// parsePolicyArg maps the CLI's lowercase policy names onto the wire-level
// policy tags, defaulting to Sequential with a warning on anything else.
func parsePolicyArg(s string) policy.Name {
	switch strings.ToLower(s) {
	case "sequential":
		return policy.Sequential
	case "quorum":
		return policy.Quorum
	case "ryw":
		return policy.RYW
	default:
		log.Printf("primary: unknown policy %q, defaulting to sequential", s)
		return policy.Sequential
	}
}

// register sends REGISTER::client_port to the co-located coordinator,
// retrying on failure in case the coordinator's listener goroutine hasn't
// started accepting yet, and returns the assigned policy name and replica id.
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
	log.Fatalf("failed to register with own coordinator: %v", lastErr)
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
		log.Printf("primary: unknown policy %q from coordinator, defaulting to sequential", name)
		return policy.NewSequential(store, coordAddr, delay)
	}
}
