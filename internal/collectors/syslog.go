package collectors

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

var syslogPattern = regexp.MustCompile(`^<(\d+)>(\w{3} +\d{1,2} \d{2}:\d{2}:\d{2}|\S+) (\S+) (\S+?)(?:\[(\d+)\])?: (.*)$`)

// syslogCollector is a telemetry.PersistentCollector: it owns a listener
// socket across cycles and buffers parsed messages between calls to
// Collect. Grounded on inputs/syslog.py's threaded TCP/UDP servers; Go's
// net package replaces socketserver.
type syslogCollector struct {
	protocol string
	addr     string
	hostname string
	logger   *logrus.Logger

	mu      sync.Mutex
	buf     []telemetry.LogRecord
	udpConn net.PacketConn
	tcpLn   net.Listener
	wg      sync.WaitGroup
}

func newSyslogCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	server := stringOption(options, "server", "")
	if server == "" {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("syslog collector requires a 'server' URL (tcp://host:port or udp://host:port)")
	}
	protocol, address, found := strings.Cut(server, "://")
	if !found {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("syslog collector server %q must include a tcp:// or udp:// scheme", server)
	}
	if protocol != "tcp" && protocol != "udp" {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("syslog collector only supports tcp:// and udp://, got %q", protocol)
	}
	if !strings.Contains(address, ":") {
		address = address + ":6514"
	}
	hostname := stringOption(options, "hostname", "")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	return telemetry.CollectorDescriptor{
		Persistent: &syslogCollector{
			protocol: protocol,
			addr:     address,
			hostname: hostname,
			logger:   logger,
		},
	}, nil
}

func (s *syslogCollector) Start(ctx context.Context) error {
	switch s.protocol {
	case "udp":
		conn, err := net.ListenPacket("udp", s.addr)
		if err != nil {
			return fmt.Errorf("syslog collector: listening on udp %s: %w", s.addr, err)
		}
		s.udpConn = conn
		s.wg.Add(1)
		go s.serveUDP()
	case "tcp":
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return fmt.Errorf("syslog collector: listening on tcp %s: %w", s.addr, err)
		}
		s.tcpLn = ln
		s.wg.Add(1)
		go s.serveTCP()
	}
	s.logger.WithFields(logrus.Fields{"protocol": s.protocol, "addr": s.addr}).Info("syslog collector listening")
	return nil
}

func (s *syslogCollector) serveUDP() {
	defer s.wg.Done()
	buf := make([]byte, 64*1024)
	for {
		n, remote, err := s.udpConn.ReadFrom(buf)
		if err != nil {
			return
		}
		s.ingest(string(buf[:n]), remoteIP(remote))
	}
}

func (s *syslogCollector) serveTCP() {
	defer s.wg.Done()
	for {
		conn, err := s.tcpLn.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleTCPConn(conn)
	}
}

func (s *syslogCollector) handleTCPConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	remote := remoteIP(conn.RemoteAddr())
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.ingest(scanner.Text(), remote)
	}
}

func (s *syslogCollector) ingest(message, remoteIP string) {
	tags := map[string]string{"host": s.hostname, "remote_ip": remoteIP}
	if fields, ok := parseSyslogMessage(message); ok {
		for k, v := range fields {
			tags[k] = v
		}
	} else {
		tags["message"] = message
	}

	record, err := telemetry.NewLogRecord(message, telemetry.LevelInfo, 0, tags, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.buf = append(s.buf, record)
	s.mu.Unlock()
}

func parseSyslogMessage(message string) (map[string]string, bool) {
	m := syslogPattern.FindStringSubmatch(message)
	if m == nil {
		return nil, false
	}
	pri, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	return map[string]string{
		"facility": strconv.Itoa(pri / 8),
		"severity": strconv.Itoa(pri % 8),
		"hostname": m[3],
		"appname":  m[4],
		"procid":   m[5],
		"message":  m[6],
	}, true
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (s *syslogCollector) Collect(ctx context.Context) (telemetry.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return telemetry.Batch{}, nil
	}
	batch := telemetry.Batch{Logs: s.buf}
	s.buf = nil
	return batch, nil
}

func (s *syslogCollector) Stop() error {
	if s.udpConn != nil {
		s.udpConn.Close()
	}
	if s.tcpLn != nil {
		s.tcpLn.Close()
	}
	s.wg.Wait()
	return nil
}
