package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kademux/kademlia/kademlia"
)

// CLI is a thin command layer over a RoutingTable. It does not own the
// table's lifecycle; it only issues commands to it.
type CLI struct {
	rt  *kademlia.RoutingTable
	in  io.Reader
	out io.Writer
}

// NewCLI constructs a CLI over the given routing table.
func NewCLI(rt *kademlia.RoutingTable, in io.Reader, out io.Writer) *CLI {
	return &CLI{rt: rt, in: in, out: out}
}

// RunLine executes a single command line. Expected commands:
//
//	add <ip> <port> <guid>                 -> stores a contact
//	get <guid>                             -> prints the contact, or NOTFOUND
//	remove <guid>                          -> removes a contact
//	closest <guid> [count] [sender-guid]   -> prints the closest known contacts
//	refresh [force]                        -> prints identifiers due for a lookup
//	buckets                                -> prints the current partition
//	help                                   -> prints command usage
//	exit                                   -> returns io.EOF
//
// On error, it prints a line starting with "ERR" and returns a non-nil
// error.
func (cli *CLI) RunLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "add":
		return cli.runAdd(args)
	case "get":
		return cli.runGet(args)
	case "remove":
		return cli.runRemove(args)
	case "closest":
		return cli.runClosest(args)
	case "refresh":
		return cli.runRefresh(args)
	case "buckets":
		return cli.runBuckets()
	case "help":
		cli.printHelp()
		return nil
	case "exit", "quit":
		return io.EOF
	default:
		fmt.Fprintf(cli.out, "ERR unknown command %q\n", cmd)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (cli *CLI) runAdd(args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(cli.out, "ERR usage: add <ip> <port> <guid>")
		return fmt.Errorf("add: wrong number of arguments")
	}
	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR invalid port %q\n", args[1])
		return err
	}
	guid, err := kademlia.ParseIdentifierBits(args[2], cli.rt.Config().BitNodeIDLen)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	c := kademlia.Contact{IP: args[0], Port: uint16(port), GUID: guid}
	if err := cli.rt.AddContact(c); err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	fmt.Fprintln(cli.out, "OK")
	return nil
}

func (cli *CLI) runGet(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(cli.out, "ERR usage: get <guid>")
		return fmt.Errorf("get: wrong number of arguments")
	}
	guid, err := kademlia.ParseIdentifierBits(args[0], cli.rt.Config().BitNodeIDLen)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	c, ok, err := cli.rt.GetContact(guid)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	if !ok {
		fmt.Fprintln(cli.out, "NOTFOUND")
		return nil
	}
	fmt.Fprintln(cli.out, c.String())
	return nil
}

func (cli *CLI) runRemove(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(cli.out, "ERR usage: remove <guid>")
		return fmt.Errorf("remove: wrong number of arguments")
	}
	guid, err := kademlia.ParseIdentifierBits(args[0], cli.rt.Config().BitNodeIDLen)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	if err := cli.rt.RemoveGUID(guid); err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	fmt.Fprintln(cli.out, "OK")
	return nil
}

func (cli *CLI) runClosest(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		fmt.Fprintln(cli.out, "ERR usage: closest <guid> [count] [sender-guid]")
		return fmt.Errorf("closest: wrong number of arguments")
	}
	guid, err := kademlia.ParseIdentifierBits(args[0], cli.rt.Config().BitNodeIDLen)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}

	count := cli.rt.Config().K
	if len(args) >= 2 {
		count, err = strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(cli.out, "ERR invalid count %q\n", args[1])
			return err
		}
	}

	var sender kademlia.Identifier
	if len(args) == 3 {
		sender, err = kademlia.ParseIdentifierBits(args[2], cli.rt.Config().BitNodeIDLen)
		if err != nil {
			fmt.Fprintf(cli.out, "ERR %v\n", err)
			return err
		}
	}

	contacts, err := cli.rt.FindCloseNodes(guid, count, sender)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	for _, c := range contacts {
		fmt.Fprintln(cli.out, c.String())
	}
	return nil
}

func (cli *CLI) runRefresh(args []string) error {
	if len(args) > 1 {
		fmt.Fprintln(cli.out, "ERR usage: refresh [force]")
		return fmt.Errorf("refresh: wrong number of arguments")
	}
	force := len(args) == 1 && strings.EqualFold(args[0], "force")

	ids, err := cli.rt.GetRefreshList(force)
	if err != nil {
		fmt.Fprintf(cli.out, "ERR %v\n", err)
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cli.out, id.String())
	}
	return nil
}

func (cli *CLI) runBuckets() error {
	n := cli.rt.Len()
	for i := 0; i < n; i++ {
		b := cli.rt.Bucket(i)
		fmt.Fprintf(cli.out, "%d: [%s, %s) contacts=%d cached=%d last_accessed=%d\n",
			i, b.RangeMin(), b.RangeMax(), b.Len(), len(b.GetCachedContacts()), b.LastAccessed())
	}
	return nil
}

func (cli *CLI) printHelp() {
	fmt.Fprintln(cli.out, "commands:")
	fmt.Fprintln(cli.out, "  add <ip> <port> <guid>")
	fmt.Fprintln(cli.out, "  get <guid>")
	fmt.Fprintln(cli.out, "  remove <guid>")
	fmt.Fprintln(cli.out, "  closest <guid> [count] [sender-guid]")
	fmt.Fprintln(cli.out, "  refresh [force]")
	fmt.Fprintln(cli.out, "  buckets")
	fmt.Fprintln(cli.out, "  exit")
}

// Run starts a simple REPL on cli.in until EOF or "exit".
func (cli *CLI) Run() error {
	sc := bufio.NewScanner(cli.in)
	for sc.Scan() {
		if err := cli.RunLine(sc.Text()); err == io.EOF {
			return nil
		}
	}
	return sc.Err()
}
