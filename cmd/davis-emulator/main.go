// Command davis-emulator stands in for a real Vantage Pro/Pro2/Vue
// console on a TCP socket, for exercising internal/protocol's wakeup,
// LPS streaming, and ACK/NACK/CRC framing without hardware attached —
// pair it with a TCP-to-serial bridge (e.g. socat PTY,link=/dev/ttyEMU
// TCP:localhost:22222) to point vantaged's internal/transport.OpenSerial
// at it directly. Grounded on the teacher's own cmd/ emulator tool,
// adapted from its hardcoded Davis struct layout to this module's
// internal/packet offsets and internal/protocol's framing bytes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/log"
)

// Console framing bytes, mirrored from internal/protocol so a change
// to the real engine's constants is easy to notice here too.
const (
	ack byte = 0x06
	nak byte = 0x21
)

// Wire offsets for the 99-byte LOOP/LOOP2 body, mirrored from
// internal/packet so the packets this binary emits decode cleanly
// through internal/protocol.LPS and internal/packet.DecodeLoop(2).
const (
	packetSize = 99

	offPacketType   = 4
	offNextRecord   = 5
	offBarometer    = 7
	offInsideTemp   = 9
	offInsideHumid  = 11
	offOutsideTemp  = 12
	offWindSpeed    = 14
	offWindSpeed10  = 15
	offWindDir      = 16
	offOutsideHumid = 33
	offRainRate     = 41
	offUV           = 43
	offSolarRad     = 44
	offLF           = 95
	offCR           = 96

	off2WindSpeed10Avg = 18
	off2DewPoint       = 30
	off2RainHour       = 54
	off2AtmPressure    = 65

	loopPacketType  = 0
	loop2PacketType = 1
)

// flakyConfig holds probabilities for simulating the kind of hardware
// misbehavior internal/protocol's retry/resync logic exists to
// tolerate: dropped or corrupted bytes, dead air, and outright
// disconnects mid-stream.
type flakyConfig struct {
	enabled            bool
	dropByteRate       float64
	corruptByteRate    float64
	disconnectRate     float64
	hangRate           float64
	hangDurationMin    int
	hangDurationMax    int
	badCRCRate         float64
	truncatePacketRate float64
	slowResponseRate   float64
	noResponseRate     float64
}

// station generates a slowly-drifting weather scene and renders it
// into wire-format LOOP/LOOP2 bodies on demand.
type station struct {
	baseTemp     float64
	baseHumidity float64
	basePressure float64
	flaky        flakyConfig
}

func newStation(flaky flakyConfig) *station {
	return &station{baseTemp: 70.0, baseHumidity: 50.0, basePressure: 30.0, flaky: flaky}
}

// scene is one instant's worth of generated readings, shared between
// the LOOP and LOOP2 renderings of the same sample.
type scene struct {
	tempF      float64
	humidity   float64
	pressureIn float64
	windSpeed  float64
	windAvg10  float64
	windDir    uint16
	solarRad   uint16
}

func (s *station) sample() scene {
	now := time.Now()
	hourOfDay := float64(now.Hour()) + float64(now.Minute())/60.0
	dayOfYear := float64(now.YearDay())

	seasonal := 20.0 * math.Sin(2*math.Pi*(dayOfYear-80)/365.0)
	daily := 15.0 * math.Sin(2*math.Pi*(hourOfDay-6)/24.0)
	noise := (rand.Float64() - 0.5) * 4.0
	tempF := s.baseTemp + seasonal + daily + noise

	humidity := s.baseHumidity + (s.baseTemp-tempF)*0.8 + (rand.Float64()-0.5)*10.0
	humidity = clamp(humidity, 10, 95)

	s.basePressure = clamp(s.basePressure+(rand.Float64()-0.5)*0.02, 28.5, 31.5)

	baseWind := 5.0 + rand.Float64()*10.0
	windSpeed := baseWind + rand.Float64()*8.0

	var solarRad uint16
	if hourOfDay > 6 && hourOfDay < 18 {
		factor := math.Sin(math.Pi * (hourOfDay - 6) / 12.0)
		solarRad = uint16(1000 * factor * (0.7 + rand.Float64()*0.3))
	}

	return scene{
		tempF:      tempF,
		humidity:   humidity,
		pressureIn: s.basePressure,
		windSpeed:  windSpeed,
		windAvg10:  baseWind,
		windDir:    uint16(rand.Float64() * 360),
		solarRad:   solarRad,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// renderLoop writes one LOOP (type 0) body at the given scene.
func (s *station) renderLoop(sc scene) []byte {
	buf := make([]byte, packetSize)
	copy(buf[0:3], "LOO")
	bitcodec.PutUint8(buf, offPacketType, loopPacketType)
	bitcodec.PutUint16LE(buf, offNextRecord, uint16(rand.Intn(2048)))
	bitcodec.PutUint16LE(buf, offBarometer, uint16(sc.pressureIn*1000))
	bitcodec.PutInt16LE(buf, offInsideTemp, int16((sc.tempF+2)*10))
	bitcodec.PutUint8(buf, offInsideHumid, uint8(clamp(sc.humidity-5, 0, 100)))
	bitcodec.PutInt16LE(buf, offOutsideTemp, int16(sc.tempF*10))
	bitcodec.PutUint8(buf, offWindSpeed, uint8(sc.windSpeed))
	bitcodec.PutUint8(buf, offWindSpeed10, uint8(sc.windAvg10))
	bitcodec.PutUint16LE(buf, offWindDir, sc.windDir)
	bitcodec.PutUint8(buf, offOutsideHumid, uint8(sc.humidity))
	bitcodec.PutUint16LE(buf, offRainRate, uint16(rand.Intn(3)))
	bitcodec.PutUint8(buf, offUV, uint8(float64(sc.solarRad)/100))
	bitcodec.PutUint16LE(buf, offSolarRad, sc.solarRad)
	buf[offLF] = '\n'
	buf[offCR] = '\r'
	return crc16.AppendBE(buf[:97])
}

// renderLoop2 writes one LOOP2 (type 1) body at the given scene.
func (s *station) renderLoop2(sc scene) []byte {
	buf := make([]byte, packetSize)
	copy(buf[0:3], "LOO")
	bitcodec.PutUint8(buf, offPacketType, loop2PacketType)
	bitcodec.PutUint16LE(buf, offBarometer, uint16(sc.pressureIn*1000))
	bitcodec.PutInt16LE(buf, offInsideTemp, int16((sc.tempF+2)*10))
	bitcodec.PutUint8(buf, offInsideHumid, uint8(clamp(sc.humidity-5, 0, 100)))
	bitcodec.PutInt16LE(buf, offOutsideTemp, int16(sc.tempF*10))
	bitcodec.PutUint8(buf, offOutsideHumid, uint8(sc.humidity))
	bitcodec.PutUint8(buf, offWindSpeed, uint8(sc.windSpeed))
	bitcodec.PutUint16LE(buf, offWindDir, sc.windDir)
	bitcodec.PutUint16LE(buf, off2WindSpeed10Avg, uint16(sc.windAvg10*10))
	bitcodec.PutInt16LE(buf, off2DewPoint, int16(sc.tempF-5))
	bitcodec.PutUint16LE(buf, offRainRate, uint16(rand.Intn(3)))
	bitcodec.PutUint16LE(buf, off2RainHour, uint16(rand.Intn(10)))
	bitcodec.PutUint8(buf, offUV, uint8(float64(sc.solarRad)/100))
	bitcodec.PutUint16LE(buf, offSolarRad, sc.solarRad)
	bitcodec.PutUint16LE(buf, off2AtmPressure, uint16(sc.pressureIn*1000))
	buf[offLF] = '\n'
	buf[offCR] = '\r'
	return crc16.AppendBE(buf[:97])
}

// mangle applies the configured hardware flakiness to an outgoing
// packet: dropped bytes, corrupted bytes, truncation, or a deliberately
// broken CRC. Returns the packet unmodified if flakiness is disabled
// or no fault fires this round.
func (s *station) mangle(buf []byte) []byte {
	if !s.flaky.enabled {
		return buf
	}
	out := append([]byte(nil), buf...)

	if rand.Float64() < s.flaky.dropByteRate {
		pos := 3 + rand.Intn(len(out)-3)
		out = append(out[:pos], out[pos+1:]...)
		log.Debugw("emulator dropped byte", "position", pos)
	}
	if rand.Float64() < s.flaky.corruptByteRate && len(out) > 3 {
		pos := 3 + rand.Intn(len(out)-3)
		out[pos] = byte(rand.Intn(256))
		log.Debugw("emulator corrupted byte", "position", pos)
	}
	if rand.Float64() < s.flaky.truncatePacketRate && len(out) > 10 {
		at := 10 + rand.Intn(len(out)-10)
		out = out[:at]
		log.Debugw("emulator truncated packet", "length", at)
	}
	if rand.Float64() < s.flaky.badCRCRate && len(out) >= packetSize {
		out[97] = byte(rand.Intn(256))
		out[98] = byte(rand.Intn(256))
		log.Debug("emulator corrupted CRC bytes")
	}
	return out
}

func (s *station) shouldHang() bool       { return s.flaky.enabled && rand.Float64() < s.flaky.hangRate }
func (s *station) shouldDisconnect() bool { return s.flaky.enabled && rand.Float64() < s.flaky.disconnectRate }
func (s *station) shouldStall() bool      { return s.flaky.enabled && rand.Float64() < s.flaky.slowResponseRate }
func (s *station) shouldIgnore() bool     { return s.flaky.enabled && rand.Float64() < s.flaky.noResponseRate }

func (s *station) hang() {
	d := s.flaky.hangDurationMin + rand.Intn(s.flaky.hangDurationMax-s.flaky.hangDurationMin+1)
	log.Debugf("emulator hanging for %ds", d)
	time.Sleep(time.Duration(d) * time.Second)
}

func handleConnection(conn net.Conn, st *station) {
	defer conn.Close()
	log.Infow("console connection opened", "remote", conn.RemoteAddr().String())

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()

		if st.shouldIgnore() {
			log.Debug("emulator ignoring command")
			continue
		}
		if st.shouldStall() {
			time.Sleep(time.Duration(5+rand.Intn(10)) * time.Second)
		}
		if st.shouldHang() {
			st.hang()
		}

		switch {
		case cmd == "":
			// A bare LF is a wakeup probe; the console replies LF CR.
			if st.shouldDisconnect() {
				log.Debug("emulator disconnecting during wakeup reply")
				return
			}
			conn.Write([]byte("\n\r"))

		case strings.HasPrefix(cmd, "LPS "):
			fields := strings.Fields(cmd)
			if len(fields) != 3 {
				conn.Write([]byte{nak})
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n <= 0 || n > 2048 {
				conn.Write([]byte{nak})
				continue
			}
			conn.Write([]byte{ack})
			runLPS(conn, st, n)

		default:
			log.Warnw("unrecognized command", "command", cmd)
			conn.Write([]byte{nak})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warnw("console connection error", "error", err)
	}
	log.Infow("console connection closed", "remote", conn.RemoteAddr().String())
}

// runLPS streams n alternating LOOP/LOOP2 packets, matching
// internal/protocol.Engine.LPS's "LOOP first, then LOOP2" cadence.
func runLPS(conn net.Conn, st *station, n int) {
	for i := 0; i < n; i++ {
		if st.shouldDisconnect() {
			log.Debugw("emulator disconnecting mid-stream", "packet", i+1, "of", n)
			return
		}
		if st.shouldHang() {
			st.hang()
		}

		sc := st.sample()
		var body []byte
		if i%2 == 1 {
			body = st.renderLoop2(sc)
		} else {
			body = st.renderLoop(sc)
		}
		body = st.mangle(body)

		if _, err := conn.Write(body); err != nil {
			log.Warnw("failed writing LOOP packet", "packet", i+1, "error", err)
			return
		}
		time.Sleep(1500 * time.Millisecond)
	}
}

func main() {
	var (
		port  = flag.Int("port", 22222, "TCP port to listen on")
		debug = flag.Bool("debug", false, "Turn on debugging output")

		flaky              = flag.Bool("flaky", false, "Enable flaky hardware simulation")
		dropByteRate       = flag.Float64("drop-rate", 0.05, "Probability of dropping a byte from a packet")
		corruptByteRate    = flag.Float64("corrupt-rate", 0.05, "Probability of corrupting a byte in a packet")
		disconnectRate     = flag.Float64("disconnect-rate", 0.02, "Probability of disconnecting mid-transmission")
		hangRate           = flag.Float64("hang-rate", 0.01, "Probability of hanging before a reply")
		hangDurationMin    = flag.Int("hang-min", 3, "Minimum hang duration in seconds")
		hangDurationMax    = flag.Int("hang-max", 8, "Maximum hang duration in seconds")
		badCRCRate         = flag.Float64("bad-crc-rate", 0.03, "Probability of corrupting a packet's CRC")
		truncatePacketRate = flag.Float64("truncate-rate", 0.02, "Probability of truncating a packet")
		slowResponseRate   = flag.Float64("slow-rate", 0.02, "Probability of a slow reply")
		noResponseRate     = flag.Float64("no-response-rate", 0.01, "Probability of ignoring a command entirely")
	)
	flag.Parse()

	if err := log.Init(*debug, 0); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := flakyConfig{
		enabled: *flaky, dropByteRate: *dropByteRate, corruptByteRate: *corruptByteRate,
		disconnectRate: *disconnectRate, hangRate: *hangRate, hangDurationMin: *hangDurationMin,
		hangDurationMax: *hangDurationMax, badCRCRate: *badCRCRate, truncatePacketRate: *truncatePacketRate,
		slowResponseRate: *slowResponseRate, noResponseRate: *noResponseRate,
	}
	if cfg.enabled {
		log.Infow("flaky hardware simulation enabled",
			"dropRate", cfg.dropByteRate, "corruptRate", cfg.corruptByteRate, "badCRCRate", cfg.badCRCRate,
			"truncateRate", cfg.truncatePacketRate, "disconnectRate", cfg.disconnectRate, "hangRate", cfg.hangRate)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	st := newStation(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received, stopping emulator")
		cancel()
		listener.Close()
	}()

	log.Infow("davis-emulator listening", "port", *port)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warnw("accept failed", "error", err)
				continue
			}
			go handleConnection(conn, st)
		}
	}
}
