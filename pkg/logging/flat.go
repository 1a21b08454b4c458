package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// FlatEncoder writes every entry as one JSON object with entry metadata and
// fields at the same level, which is what most log aggregators index best.
// Fields added through With(...) accumulate in the embedded map encoder.
type FlatEncoder struct {
	*zapcore.MapObjectEncoder
	config zapcore.EncoderConfig
}

// NewFlatEncoder creates a new flat JSON encoder
func NewFlatEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &FlatEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		config:           config,
	}
}

// EncodeEntry encodes a log entry as a flat JSON line
func (e *FlatEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	fieldEnc := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		fieldEnc.Fields[k] = v
	}
	for _, field := range fields {
		field.AddTo(fieldEnc)
	}

	logObj := make(map[string]interface{}, len(fieldEnc.Fields)+8)
	for k, v := range fieldEnc.Fields {
		switch val := v.(type) {
		case time.Duration:
			logObj[k] = val.String()
		case time.Time:
			logObj[k] = val.Format(time.RFC3339Nano)
		default:
			logObj[k] = val
		}
	}

	// Entry metadata wins over colliding field names
	logObj["timestamp"] = entry.Time.Format(time.RFC3339Nano)
	logObj["level"] = entry.Level.String()
	logObj["message"] = entry.Message
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["file"] = entry.Caller.File
		logObj["line"] = entry.Caller.Line
		logObj["function"] = entry.Caller.Function
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	data, err := json.Marshal(logObj)
	if err != nil {
		return nil, err
	}

	buf := bufferPool.Get()
	buf.AppendBytes(data)
	if e.config.LineEnding != "" {
		buf.AppendString(e.config.LineEnding)
	} else {
		buf.AppendString(zapcore.DefaultLineEnding)
	}
	return buf, nil
}

// Clone creates a copy of the encoder
func (e *FlatEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return &FlatEncoder{
		MapObjectEncoder: clone,
		config:           e.config,
	}
}
