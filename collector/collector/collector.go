package collector

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/spf13/pflag"
	"github.com/tarm/serial"
)

type flagSet struct {
	flags      *pflag.FlagSet
	configFile *string
	serialPort *string
	baudRate   *int
	serverHost *string
	serverPort *int
	cid        *string
	resolution *int
	csvFile    *string
}

func (fs *flagSet) parseRequiredFlags(args []string) error {
	fs.flags = pflag.NewFlagSet("rf-signal-collector", pflag.ContinueOnError)
	fs.configFile = fs.flags.String("config", "", "Specifies a YAML config file")
	fs.serialPort = fs.flags.StringP("serial", "s", "", "Specifies the serial port in the form /dev/xxx")
	fs.baudRate = fs.flags.IntP("baud", "b", 9600, "Specifies the baud rate of the serial port")
	fs.serverHost = fs.flags.String("server", "localhost", "Specifies host name or IP address or server")
	fs.serverPort = fs.flags.IntP("port", "p", 8080, "Specifies the port number of the server")
	fs.cid = fs.flags.StringP("collectorId", "c", "", "Specifies the id of this instance of collector")
	fs.resolution = fs.flags.IntP("resolution", "r", 1, "Specifies the microseconds per unit of the receiver's durations")
	fs.csvFile = fs.flags.String("csv", "", "Saves every capture to this CSV file on exit")
	return fs.flags.Parse(args)
}

// apply copies the flags given on the command line over config.
func (fs *flagSet) apply(config *Config) {
	if fs.flags.Changed("serial") {
		config.Serial = *fs.serialPort
	}
	if fs.flags.Changed("baud") {
		config.Baud = *fs.baudRate
	}
	if fs.flags.Changed("server") {
		config.Server = *fs.serverHost
	}
	if fs.flags.Changed("port") {
		config.Port = *fs.serverPort
	}
	if fs.flags.Changed("collectorId") {
		config.CollectorID = *fs.cid
	}
	if fs.flags.Changed("resolution") {
		config.Resolution = *fs.resolution
	}
	if fs.flags.Changed("csv") {
		config.CSV = *fs.csvFile
	}
}

func loadConfig(args []string) (Config, error) {
	var collectorFlag flagSet
	if err := collectorFlag.parseRequiredFlags(args); err != nil {
		return Config{}, err
	}
	config := DefaultConfig()
	if *collectorFlag.configFile != "" {
		var err error
		if config, err = LoadConfig(*collectorFlag.configFile); err != nil {
			return Config{}, err
		}
	}
	config.applyEnv()
	collectorFlag.apply(&config)
	if err := config.Validate(); err != nil {
		collectorFlag.flags.PrintDefaults()
		return Config{}, err
	}
	if config.Serial == "" {
		collectorFlag.flags.PrintDefaults()
		return Config{}, errors.New("Serial port not specified")
	}
	return config, nil
}

type capturePublisher interface {
	publishTaggedCaptureJSON(taggedCaptureJSON []byte) (int, error)
}

type codePublisher interface {
	publishCode(collectorID string, code pulsecode.Code) error
}

var csvHeader = []string{"received", "collectorId", "code", "durations"}

// collector turns receiver lines into published captures.
type collector struct {
	config    Config
	publisher capturePublisher
	codes     codePublisher
	records   [][]string
	wg        sync.WaitGroup
}

// run handles every line of r and waits for the pending publishes.
func (c *collector) run(r io.Reader) error {
	lineScanner := bufio.NewScanner(r)
	for lineScanner.Scan() {
		c.handleLine(lineScanner.Text())
	}
	c.wg.Wait()
	return lineScanner.Err()
}

func (c *collector) handleLine(line string) {
	log.Printf("Received line -> %s", line)
	durations, err := parseCaptureLine(line)
	if err != nil {
		log.Printf("Skipping line: %v", err)
		return
	}

	scaled, err := scaleDurations(durations, c.config.Resolution)
	if err != nil {
		log.Printf("Skipping line: %v", err)
		return
	}
	var summary string
	code, err := pulsecode.DecodeTrain(pulsecode.NewTrain(scaled), c.config.Decoder)
	if err != nil {
		log.Printf("Capture does not decode locally: %v", err)
		summary = err.Error()
	} else {
		summary = code.String()
		log.Printf("Decoded %s", summary)
		if c.codes != nil {
			if err := c.codes.publishCode(c.config.CollectorID, code); err != nil {
				log.Print(err)
			}
		}
	}
	if c.config.CSV != "" {
		c.records = append(c.records, []string{
			time.Now().UTC().Format(time.RFC3339),
			c.config.CollectorID,
			summary,
			joinDurations(scaled),
		})
	}

	tagged := taggedCapture{
		CollectorID: c.config.CollectorID,
		Capture:     captureData{Resolution: c.config.Resolution, Data: durations},
	}
	taggedCaptureJSON, err := json.Marshal(tagged)
	if err != nil {
		log.Println("Error marshaling.", err)
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.publisher.publishTaggedCaptureJSON(taggedCaptureJSON); err != nil {
			log.Print(err)
		}
	}()
}

func (c *collector) writeCSV(w io.Writer) error {
	outputWriter := csv.NewWriter(w)
	if err := outputWriter.Write(csvHeader); err != nil {
		return err
	}
	if err := outputWriter.WriteAll(c.records); err != nil {
		return err
	}
	outputWriter.Flush()
	return outputWriter.Error()
}

func (c *collector) saveCSV() {
	file, err := os.Create(c.config.CSV)
	if err != nil {
		log.Print(err)
		return
	}
	defer file.Close()
	if err := c.writeCSV(file); err != nil {
		log.Print(err)
		return
	}
	log.Printf("Saved %d captures to '%s'", len(c.records), c.config.CSV)
}

// scaleDurations converts receiver units to microseconds.
func scaleDurations(durations []uint32, resolution int) ([]uint32, error) {
	scaled := make([]uint32, len(durations))
	for i, d := range durations {
		us := uint64(d) * uint64(resolution)
		if us > math.MaxUint32 {
			return nil, fmt.Errorf("pulse %d overflows at resolution %d", d, resolution)
		}
		scaled[i] = uint32(us)
	}
	return scaled, nil
}

func joinDurations(durations []uint32) string {
	s := make([]string, len(durations))
	for i, d := range durations {
		s[i] = strconv.FormatUint(uint64(d), 10)
	}
	return strings.Join(s, " ")
}

// Start launches the collector
func Start() {
	config, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(config.Serial); err != nil {
		log.Fatal("Error checking serial port.", err)
	}
	port, err := serial.OpenPort(&serial.Config{Name: config.Serial, Baud: config.Baud})
	if err != nil {
		log.Fatal("Error opening serial port.", err)
	}
	log.Printf("Opened serial port '%s' at baud rate %d", config.Serial, config.Baud)
	client, err := newPublishClient(config.Server, config.Port)
	if err != nil {
		log.Fatal("Error creating publish client.", err)
	}
	log.Printf("Captures will be published to '%s'", client.serverURL)

	c := &collector{config: config, publisher: client}
	if config.MQTT.Enabled {
		mp, err := newMQTTPublisher(config.MQTT)
		if err != nil {
			log.Fatal(err)
		}
		defer mp.disconnect()
		c.codes = mp
	}

	go func() {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt)

		log.Print("Press Ctrl-C to exit program")

		<-signalChannel

		log.Print("Closing serial port")
		port.Close()
	}()

	if err := c.run(port); err != nil {
		log.Println(err)
	}
	if config.CSV != "" {
		c.saveCSV()
	}
}
