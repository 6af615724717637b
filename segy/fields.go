package segy

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Sizes of the fixed SEG-Y headers.
const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	TraceHeaderSize  = 240
)

// TraceField is a trace header field, numbered by its 1-based byte position within
// the 240-byte trace header.
type TraceField int

const (
	TraceSequenceLine                      TraceField = 1
	TraceSequenceFile                      TraceField = 5
	FieldRecord                            TraceField = 9
	TraceNumber                            TraceField = 13
	EnergySourcePoint                      TraceField = 17
	CDP                                    TraceField = 21
	CDPTrace                               TraceField = 25
	TraceIdentificationCode                TraceField = 29
	NSummedTraces                          TraceField = 31
	NStackedTraces                         TraceField = 33
	DataUse                                TraceField = 35
	Offset                                 TraceField = 37
	ReceiverGroupElevation                 TraceField = 41
	SourceSurfaceElevation                 TraceField = 45
	SourceDepth                            TraceField = 49
	ReceiverDatumElevation                 TraceField = 53
	SourceDatumElevation                   TraceField = 57
	SourceWaterDepth                       TraceField = 61
	GroupWaterDepth                        TraceField = 65
	ElevationScalar                        TraceField = 69
	SourceGroupScalar                      TraceField = 71
	SourceX                                TraceField = 73
	SourceY                                TraceField = 77
	GroupX                                 TraceField = 81
	GroupY                                 TraceField = 85
	CoordinateUnits                        TraceField = 89
	WeatheringVelocity                     TraceField = 91
	SubWeatheringVelocity                  TraceField = 93
	SourceUpholeTime                       TraceField = 95
	GroupUpholeTime                        TraceField = 97
	SourceStaticCorrection                 TraceField = 99
	GroupStaticCorrection                  TraceField = 101
	TotalStaticApplied                     TraceField = 103
	LagTimeA                               TraceField = 105
	LagTimeB                               TraceField = 107
	DelayRecordingTime                     TraceField = 109
	MuteTimeStart                          TraceField = 111
	MuteTimeEnd                            TraceField = 113
	TraceSampleCount                       TraceField = 115
	TraceSampleInterval                    TraceField = 117
	GainType                               TraceField = 119
	InstrumentGainConstant                 TraceField = 121
	InstrumentInitialGain                  TraceField = 123
	Correlated                             TraceField = 125
	SweepFrequencyStart                    TraceField = 127
	SweepFrequencyEnd                      TraceField = 129
	SweepLength                            TraceField = 131
	SweepType                              TraceField = 133
	SweepTraceTaperLengthStart             TraceField = 135
	SweepTraceTaperLengthEnd               TraceField = 137
	TaperType                              TraceField = 139
	AliasFilterFrequency                   TraceField = 141
	AliasFilterSlope                       TraceField = 143
	NotchFilterFrequency                   TraceField = 145
	NotchFilterSlope                       TraceField = 147
	LowCutFrequency                        TraceField = 149
	HighCutFrequency                       TraceField = 151
	LowCutSlope                            TraceField = 153
	HighCutSlope                           TraceField = 155
	YearDataRecorded                       TraceField = 157
	DayOfYear                              TraceField = 159
	HourOfDay                              TraceField = 161
	MinuteOfHour                           TraceField = 163
	SecondOfMinute                         TraceField = 165
	TimeBaseCode                           TraceField = 167
	TraceWeightingFactor                   TraceField = 169
	GeophoneGroupNumberRoll1               TraceField = 171
	GeophoneGroupNumberFirstTraceOrigField TraceField = 173
	GeophoneGroupNumberLastTraceOrigField  TraceField = 175
	GapSize                                TraceField = 177
	OverTravel                             TraceField = 179
	CDPX                                   TraceField = 181
	CDPY                                   TraceField = 185
	Inline3D                               TraceField = 189
	Crossline3D                            TraceField = 193
	ShotPoint                              TraceField = 197
	ShotPointScalar                        TraceField = 201
	TraceValueMeasurementUnit              TraceField = 203
	TransductionConstantMantissa           TraceField = 205
	TransductionConstantPower              TraceField = 209
	TransductionUnit                       TraceField = 211
	TraceIdentifier                        TraceField = 213
	ScalarTraceHeader                      TraceField = 215
	SourceType                             TraceField = 217
	SourceEnergyDirectionMantissa          TraceField = 219
	SourceEnergyDirectionExponent          TraceField = 223
	SourceMeasurementMantissa              TraceField = 225
	SourceMeasurementExponent              TraceField = 229
	SourceMeasurementUnit                  TraceField = 231
	UnassignedInt1                         TraceField = 233
	UnassignedInt2                         TraceField = 237
)

type fieldInfo struct {
	name string
	size int
}

// Names follow the segyio convention so decoded headers read like segyio's.
var traceFields = map[TraceField]fieldInfo{
	TraceSequenceLine:                      {"TRACE_SEQUENCE_LINE", 4},
	TraceSequenceFile:                      {"TRACE_SEQUENCE_FILE", 4},
	FieldRecord:                            {"FieldRecord", 4},
	TraceNumber:                            {"TraceNumber", 4},
	EnergySourcePoint:                      {"EnergySourcePoint", 4},
	CDP:                                    {"CDP", 4},
	CDPTrace:                               {"CDP_TRACE", 4},
	TraceIdentificationCode:                {"TraceIdentificationCode", 2},
	NSummedTraces:                          {"NSummedTraces", 2},
	NStackedTraces:                         {"NStackedTraces", 2},
	DataUse:                                {"DataUse", 2},
	Offset:                                 {"offset", 4},
	ReceiverGroupElevation:                 {"ReceiverGroupElevation", 4},
	SourceSurfaceElevation:                 {"SourceSurfaceElevation", 4},
	SourceDepth:                            {"SourceDepth", 4},
	ReceiverDatumElevation:                 {"ReceiverDatumElevation", 4},
	SourceDatumElevation:                   {"SourceDatumElevation", 4},
	SourceWaterDepth:                       {"SourceWaterDepth", 4},
	GroupWaterDepth:                        {"GroupWaterDepth", 4},
	ElevationScalar:                        {"ElevationScalar", 2},
	SourceGroupScalar:                      {"SourceGroupScalar", 2},
	SourceX:                                {"SourceX", 4},
	SourceY:                                {"SourceY", 4},
	GroupX:                                 {"GroupX", 4},
	GroupY:                                 {"GroupY", 4},
	CoordinateUnits:                        {"CoordinateUnits", 2},
	WeatheringVelocity:                     {"WeatheringVelocity", 2},
	SubWeatheringVelocity:                  {"SubWeatheringVelocity", 2},
	SourceUpholeTime:                       {"SourceUpholeTime", 2},
	GroupUpholeTime:                        {"GroupUpholeTime", 2},
	SourceStaticCorrection:                 {"SourceStaticCorrection", 2},
	GroupStaticCorrection:                  {"GroupStaticCorrection", 2},
	TotalStaticApplied:                     {"TotalStaticApplied", 2},
	LagTimeA:                               {"LagTimeA", 2},
	LagTimeB:                               {"LagTimeB", 2},
	DelayRecordingTime:                     {"DelayRecordingTime", 2},
	MuteTimeStart:                          {"MuteTimeStart", 2},
	MuteTimeEnd:                            {"MuteTimeEND", 2},
	TraceSampleCount:                       {"TRACE_SAMPLE_COUNT", 2},
	TraceSampleInterval:                    {"TRACE_SAMPLE_INTERVAL", 2},
	GainType:                               {"GainType", 2},
	InstrumentGainConstant:                 {"InstrumentGainConstant", 2},
	InstrumentInitialGain:                  {"InstrumentInitialGain", 2},
	Correlated:                             {"Correlated", 2},
	SweepFrequencyStart:                    {"SweepFrequencyStart", 2},
	SweepFrequencyEnd:                      {"SweepFrequencyEnd", 2},
	SweepLength:                            {"SweepLength", 2},
	SweepType:                              {"SweepType", 2},
	SweepTraceTaperLengthStart:             {"SweepTraceTaperLengthStart", 2},
	SweepTraceTaperLengthEnd:               {"SweepTraceTaperLengthEnd", 2},
	TaperType:                              {"TaperType", 2},
	AliasFilterFrequency:                   {"AliasFilterFrequency", 2},
	AliasFilterSlope:                       {"AliasFilterSlope", 2},
	NotchFilterFrequency:                   {"NotchFilterFrequency", 2},
	NotchFilterSlope:                       {"NotchFilterSlope", 2},
	LowCutFrequency:                        {"LowCutFrequency", 2},
	HighCutFrequency:                       {"HighCutFrequency", 2},
	LowCutSlope:                            {"LowCutSlope", 2},
	HighCutSlope:                           {"HighCutSlope", 2},
	YearDataRecorded:                       {"YearDataRecorded", 2},
	DayOfYear:                              {"DayOfYear", 2},
	HourOfDay:                              {"HourOfDay", 2},
	MinuteOfHour:                           {"MinuteOfHour", 2},
	SecondOfMinute:                         {"SecondOfMinute", 2},
	TimeBaseCode:                           {"TimeBaseCode", 2},
	TraceWeightingFactor:                   {"TraceWeightingFactor", 2},
	GeophoneGroupNumberRoll1:               {"GeophoneGroupNumberRoll1", 2},
	GeophoneGroupNumberFirstTraceOrigField: {"GeophoneGroupNumberFirstTraceOrigField", 2},
	GeophoneGroupNumberLastTraceOrigField:  {"GeophoneGroupNumberLastTraceOrigField", 2},
	GapSize:                                {"GapSize", 2},
	OverTravel:                             {"OverTravel", 2},
	CDPX:                                   {"CDP_X", 4},
	CDPY:                                   {"CDP_Y", 4},
	Inline3D:                               {"INLINE_3D", 4},
	Crossline3D:                            {"CROSSLINE_3D", 4},
	ShotPoint:                              {"ShotPoint", 4},
	ShotPointScalar:                        {"ShotPointScalar", 2},
	TraceValueMeasurementUnit:              {"TraceValueMeasurementUnit", 2},
	TransductionConstantMantissa:           {"TransductionConstantMantissa", 4},
	TransductionConstantPower:              {"TransductionConstantPower", 2},
	TransductionUnit:                       {"TransductionUnit", 2},
	TraceIdentifier:                        {"TraceIdentifier", 2},
	ScalarTraceHeader:                      {"ScalarTraceHeader", 2},
	SourceType:                             {"SourceType", 2},
	SourceEnergyDirectionMantissa:          {"SourceEnergyDirectionMantissa", 4},
	SourceEnergyDirectionExponent:          {"SourceEnergyDirectionExponent", 2},
	SourceMeasurementMantissa:              {"SourceMeasurementMantissa", 4},
	SourceMeasurementExponent:              {"SourceMeasurementExponent", 2},
	SourceMeasurementUnit:                  {"SourceMeasurementUnit", 2},
	UnassignedInt1:                         {"UnassignedInt1", 4},
	UnassignedInt2:                         {"UnassignedInt2", 4},
}

// BinField is a binary header field, numbered by its 1-based byte position within
// the file, so the first field is 3201.
type BinField int

const (
	BinJobID                 BinField = 3201
	BinLineNumber            BinField = 3205
	BinReelNumber            BinField = 3209
	BinTraces                BinField = 3213
	BinAuxTraces             BinField = 3215
	BinInterval              BinField = 3217
	BinIntervalOriginal      BinField = 3219
	BinSamples               BinField = 3221
	BinSamplesOriginal       BinField = 3223
	BinFormat                BinField = 3225
	BinEnsembleFold          BinField = 3227
	BinSortingCode           BinField = 3229
	BinVerticalSum           BinField = 3231
	BinSweepFrequencyStart   BinField = 3233
	BinSweepFrequencyEnd     BinField = 3235
	BinSweepLength           BinField = 3237
	BinSweep                 BinField = 3239
	BinSweepChannel          BinField = 3241
	BinSweepTaperStart       BinField = 3243
	BinSweepTaperEnd         BinField = 3245
	BinTaper                 BinField = 3247
	BinCorrelatedTraces      BinField = 3249
	BinBinaryGainRecovery    BinField = 3251
	BinAmplitudeRecovery     BinField = 3253
	BinMeasurementSystem     BinField = 3255
	BinImpulseSignalPolarity BinField = 3257
	BinVibratoryPolarity     BinField = 3259
	BinSEGYRevision          BinField = 3501
	BinTraceFlag             BinField = 3503
	BinExtendedHeaders       BinField = 3505
)

var binFields = map[BinField]fieldInfo{
	BinJobID:                 {"JobID", 4},
	BinLineNumber:            {"LineNumber", 4},
	BinReelNumber:            {"ReelNumber", 4},
	BinTraces:                {"Traces", 2},
	BinAuxTraces:             {"AuxTraces", 2},
	BinInterval:              {"Interval", 2},
	BinIntervalOriginal:      {"IntervalOriginal", 2},
	BinSamples:               {"Samples", 2},
	BinSamplesOriginal:       {"SamplesOriginal", 2},
	BinFormat:                {"Format", 2},
	BinEnsembleFold:          {"EnsembleFold", 2},
	BinSortingCode:           {"SortingCode", 2},
	BinVerticalSum:           {"VerticalSum", 2},
	BinSweepFrequencyStart:   {"SweepFrequencyStart", 2},
	BinSweepFrequencyEnd:     {"SweepFrequencyEnd", 2},
	BinSweepLength:           {"SweepLength", 2},
	BinSweep:                 {"Sweep", 2},
	BinSweepChannel:          {"SweepChannel", 2},
	BinSweepTaperStart:       {"SweepTaperStart", 2},
	BinSweepTaperEnd:         {"SweepTaperEnd", 2},
	BinTaper:                 {"Taper", 2},
	BinCorrelatedTraces:      {"CorrelatedTraces", 2},
	BinBinaryGainRecovery:    {"BinaryGainRecovery", 2},
	BinAmplitudeRecovery:     {"AmplitudeRecovery", 2},
	BinMeasurementSystem:     {"MeasurementSystem", 2},
	BinImpulseSignalPolarity: {"ImpulseSignalPolarity", 2},
	BinVibratoryPolarity:     {"VibratoryPolarity", 2},
	BinSEGYRevision:          {"SEGYRevision", 2},
	BinTraceFlag:             {"TraceFlag", 2},
	BinExtendedHeaders:       {"ExtendedHeaders", 2},
}

var (
	traceFieldOrder []TraceField
	binFieldOrder   []BinField
	traceFieldNames = make(map[string]TraceField, len(traceFields))
	binFieldNames   = make(map[string]BinField, len(binFields))
)

func init() {
	for f, info := range traceFields {
		traceFieldOrder = append(traceFieldOrder, f)
		traceFieldNames[info.name] = f
	}
	sort.Slice(traceFieldOrder, func(i, j int) bool { return traceFieldOrder[i] < traceFieldOrder[j] })
	for f, info := range binFields {
		binFieldOrder = append(binFieldOrder, f)
		binFieldNames[info.name] = f
	}
	sort.Slice(binFieldOrder, func(i, j int) bool { return binFieldOrder[i] < binFieldOrder[j] })
}

func (f TraceField) String() string {
	if info, found := traceFields[f]; found {
		return info.name
	}
	return fmt.Sprintf("TraceField(%d)", int(f))
}

// Size returns the number of bytes of the field, or 0 for an unknown field.
func (f TraceField) Size() int {
	return traceFields[f].size
}

// TraceFields returns every known trace header field in byte order.
func TraceFields() []TraceField {
	return append([]TraceField(nil), traceFieldOrder...)
}

// TraceFieldByName returns the field with the given segyio name.
func TraceFieldByName(name string) (TraceField, bool) {
	f, found := traceFieldNames[name]
	return f, found
}

func (f BinField) String() string {
	if info, found := binFields[f]; found {
		return info.name
	}
	return fmt.Sprintf("BinField(%d)", int(f))
}

// Size returns the number of bytes of the field, or 0 for an unknown field.
func (f BinField) Size() int {
	return binFields[f].size
}

// BinFields returns every known binary header field in byte order.
func BinFields() []BinField {
	return append([]BinField(nil), binFieldOrder...)
}

// BinFieldByName returns the field with the given segyio name.
func BinFieldByName(name string) (BinField, bool) {
	f, found := binFieldNames[name]
	return f, found
}

// Sample counts and intervals are unsigned 2-byte fields, keyed by byte position.
var unsignedFields = map[int]bool{
	int(TraceSampleCount):    true,
	int(TraceSampleInterval): true,
	int(BinInterval):         true,
	int(BinIntervalOriginal): true,
	int(BinSamples):          true,
	int(BinSamplesOriginal):  true,
}

// getField decodes the big-endian integer at a 0-based offset.  Fields are
// signed unless listed in unsignedFields.
func getField(b []byte, off, size int, unsigned bool) int32 {
	switch {
	case size == 2 && unsigned:
		return int32(binary.BigEndian.Uint16(b[off:]))
	case size == 2:
		return int32(int16(binary.BigEndian.Uint16(b[off:])))
	case size == 4:
		return int32(binary.BigEndian.Uint32(b[off:]))
	default:
		return 0
	}
}

func putField(b []byte, off, size int, v int32) {
	switch size {
	case 2:
		binary.BigEndian.PutUint16(b[off:], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b[off:], uint32(v))
	}
}

// TraceHeader maps trace header fields to their values.
type TraceHeader map[TraceField]int32

// ParseTraceHeader decodes every known field of a 240-byte trace header.
func ParseTraceHeader(b []byte) (TraceHeader, error) {
	if len(b) != TraceHeaderSize {
		return nil, fmt.Errorf("trace header must be %d bytes, got %d", TraceHeaderSize, len(b))
	}
	h := make(TraceHeader, len(traceFields))
	for f, info := range traceFields {
		h[f] = getField(b, int(f)-1, info.size, unsignedFields[int(f)])
	}
	return h, nil
}

// Bytes encodes the header.  Fields not in the map are zero.
func (h TraceHeader) Bytes() []byte {
	b := make([]byte, TraceHeaderSize)
	for f, v := range h {
		if info, found := traceFields[f]; found {
			putField(b, int(f)-1, info.size, v)
		}
	}
	return b
}

// Named returns the header keyed by segyio field names.
func (h TraceHeader) Named() map[string]int32 {
	named := make(map[string]int32, len(h))
	for f, v := range h {
		named[f.String()] = v
	}
	return named
}

// BinaryHeader maps binary header fields to their values.
type BinaryHeader map[BinField]int32

// ParseBinaryHeader decodes every known field of a 400-byte binary header.
func ParseBinaryHeader(b []byte) (BinaryHeader, error) {
	if len(b) != BinaryHeaderSize {
		return nil, fmt.Errorf("binary header must be %d bytes, got %d", BinaryHeaderSize, len(b))
	}
	h := make(BinaryHeader, len(binFields))
	for f, info := range binFields {
		h[f] = getField(b, int(f)-TextHeaderSize-1, info.size, unsignedFields[int(f)])
	}
	return h, nil
}

// Bytes encodes the header.  Fields not in the map are zero.
func (h BinaryHeader) Bytes() []byte {
	b := make([]byte, BinaryHeaderSize)
	for f, v := range h {
		if info, found := binFields[f]; found {
			putField(b, int(f)-TextHeaderSize-1, info.size, v)
		}
	}
	return b
}

// Named returns the header keyed by segyio field names.
func (h BinaryHeader) Named() map[string]int32 {
	named := make(map[string]int32, len(h))
	for f, v := range h {
		named[f.String()] = v
	}
	return named
}
