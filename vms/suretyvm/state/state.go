// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the Surety VM registry, funding, insurance and
// oracle records.
package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
)

var (
	AirlinePrefix        = []byte("airline")
	VotePrefix           = []byte("vote")
	BalancePrefix        = []byte("balance")
	FlightPrefix         = []byte("flight")
	AirlineFlightsPrefix = []byte("airlineFlights")
	PassengerIndexPrefix = []byte("passengers")
	CreditPrefix         = []byte("credit")
	OraclePrefix         = []byte("oracle")
	RequestPrefix        = []byte("request")
	AuthorizedPrefix     = []byte("authorized")
	SingletonPrefix      = []byte("singleton")

	InitializedKey     = []byte("initialized")
	OperationalKey     = []byte("operational")
	RegisteredCountKey = []byte("registeredCount")

	ErrCorrupted = errors.New("state corrupted")

	_ State = (*state)(nil)
)

// Chain is the read/write view every operation executes against.
// Getters of records return database.ErrNotFound when the record is absent.
type Chain interface {
	IsOperational() (bool, error)
	SetOperational(operational bool) error

	IsAuthorized(caller ids.ShortID) (bool, error)
	SetAuthorized(caller ids.ShortID, authorized bool) error

	GetAirline(addr ids.ShortID) (*Airline, error)
	PutAirline(addr ids.ShortID, airline *Airline) error
	HasVoted(candidate, voter ids.ShortID) (bool, error)
	PutVote(candidate, voter ids.ShortID) error
	GetRegisteredCount() (uint64, error)
	SetRegisteredCount(count uint64) error

	GetBalance(airline ids.ShortID) (uint64, error)
	SetBalance(airline ids.ShortID, balance uint64) error

	GetFlight(airline ids.ShortID, number string) (*Flight, error)
	PutFlight(flight *Flight) error
	GetAirlineFlights(airline ids.ShortID) ([]string, error)
	PutAirlineFlights(airline ids.ShortID, numbers []string) error
	GetFlightPassengers(number string) ([]ids.ShortID, error)
	PutFlightPassengers(number string, passengers []ids.ShortID) error

	GetCredit(passenger ids.ShortID) (uint64, error)
	SetCredit(passenger ids.ShortID, credit uint64) error

	GetOracle(addr ids.ShortID) (*Oracle, error)
	PutOracle(addr ids.ShortID, oracle *Oracle) error
	GetRequest(requestID ids.ID) (*OracleRequest, error)
	PutRequest(request *OracleRequest) error
}

// State is a Chain whose writes are staged until Commit or dropped by Abort.
type State interface {
	Chain

	// IsInitialized reports whether genesis state was committed.
	IsInitialized() (bool, error)
	SetInitialized() error

	Commit() error
	Abort()
	Close() error
}

type state struct {
	baseDB *versiondb.Database

	airlineDB        database.Database
	voteDB           database.Database
	balanceDB        database.Database
	flightDB         database.Database
	airlineFlightsDB database.Database
	passengerDB      database.Database
	creditDB         database.Database
	oracleDB         database.Database
	requestDB        database.Database
	authorizedDB     database.Database
	singletonDB      database.Database
}

// New returns a State staging its writes over [db].
func New(db database.Database) State {
	baseDB := versiondb.New(db)
	return &state{
		baseDB:           baseDB,
		airlineDB:        prefixdb.New(AirlinePrefix, baseDB),
		voteDB:           prefixdb.New(VotePrefix, baseDB),
		balanceDB:        prefixdb.New(BalancePrefix, baseDB),
		flightDB:         prefixdb.New(FlightPrefix, baseDB),
		airlineFlightsDB: prefixdb.New(AirlineFlightsPrefix, baseDB),
		passengerDB:      prefixdb.New(PassengerIndexPrefix, baseDB),
		creditDB:         prefixdb.New(CreditPrefix, baseDB),
		oracleDB:         prefixdb.New(OraclePrefix, baseDB),
		requestDB:        prefixdb.New(RequestPrefix, baseDB),
		authorizedDB:     prefixdb.New(AuthorizedPrefix, baseDB),
		singletonDB:      prefixdb.New(SingletonPrefix, baseDB),
	}
}

func (s *state) IsInitialized() (bool, error) {
	return s.singletonDB.Has(InitializedKey)
}

func (s *state) SetInitialized() error {
	return s.singletonDB.Put(InitializedKey, nil)
}

func (s *state) IsOperational() (bool, error) {
	return getFlag(s.singletonDB, OperationalKey)
}

func (s *state) SetOperational(operational bool) error {
	return putFlag(s.singletonDB, OperationalKey, operational)
}

func (s *state) IsAuthorized(caller ids.ShortID) (bool, error) {
	return s.authorizedDB.Has(caller[:])
}

func (s *state) SetAuthorized(caller ids.ShortID, authorized bool) error {
	if authorized {
		return s.authorizedDB.Put(caller[:], nil)
	}
	return s.authorizedDB.Delete(caller[:])
}

func (s *state) GetAirline(addr ids.ShortID) (*Airline, error) {
	airline := &Airline{}
	if err := getRecord(s.airlineDB, addr[:], airline); err != nil {
		return nil, err
	}
	return airline, nil
}

func (s *state) PutAirline(addr ids.ShortID, airline *Airline) error {
	return putRecord(s.airlineDB, addr[:], airline)
}

func (s *state) HasVoted(candidate, voter ids.ShortID) (bool, error) {
	return s.voteDB.Has(pairKey(candidate, voter))
}

func (s *state) PutVote(candidate, voter ids.ShortID) error {
	return s.voteDB.Put(pairKey(candidate, voter), nil)
}

func (s *state) GetRegisteredCount() (uint64, error) {
	return getUint64(s.singletonDB, RegisteredCountKey)
}

func (s *state) SetRegisteredCount(count uint64) error {
	return database.PutUInt64(s.singletonDB, RegisteredCountKey, count)
}

func (s *state) GetBalance(airline ids.ShortID) (uint64, error) {
	return getUint64(s.balanceDB, airline[:])
}

func (s *state) SetBalance(airline ids.ShortID, balance uint64) error {
	return database.PutUInt64(s.balanceDB, airline[:], balance)
}

func (s *state) GetFlight(airline ids.ShortID, number string) (*Flight, error) {
	flight := &Flight{}
	if err := getRecord(s.flightDB, flightKey(airline, number), flight); err != nil {
		return nil, err
	}
	return flight, nil
}

func (s *state) PutFlight(flight *Flight) error {
	return putRecord(s.flightDB, flightKey(flight.Airline, flight.Number), flight)
}

type flightList struct {
	Numbers []string `serialize:"true"`
}

func (s *state) GetAirlineFlights(airline ids.ShortID) ([]string, error) {
	list := &flightList{}
	err := getRecord(s.airlineFlightsDB, airline[:], list)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return list.Numbers, err
}

func (s *state) PutAirlineFlights(airline ids.ShortID, numbers []string) error {
	return putRecord(s.airlineFlightsDB, airline[:], &flightList{Numbers: numbers})
}

type passengerList struct {
	Passengers []ids.ShortID `serialize:"true"`
}

func (s *state) GetFlightPassengers(number string) ([]ids.ShortID, error) {
	list := &passengerList{}
	err := getRecord(s.passengerDB, []byte(number), list)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return list.Passengers, err
}

func (s *state) PutFlightPassengers(number string, passengers []ids.ShortID) error {
	return putRecord(s.passengerDB, []byte(number), &passengerList{Passengers: passengers})
}

func (s *state) GetCredit(passenger ids.ShortID) (uint64, error) {
	return getUint64(s.creditDB, passenger[:])
}

func (s *state) SetCredit(passenger ids.ShortID, credit uint64) error {
	if credit == 0 {
		return s.creditDB.Delete(passenger[:])
	}
	return database.PutUInt64(s.creditDB, passenger[:], credit)
}

func (s *state) GetOracle(addr ids.ShortID) (*Oracle, error) {
	oracle := &Oracle{}
	if err := getRecord(s.oracleDB, addr[:], oracle); err != nil {
		return nil, err
	}
	return oracle, nil
}

func (s *state) PutOracle(addr ids.ShortID, oracle *Oracle) error {
	return putRecord(s.oracleDB, addr[:], oracle)
}

func (s *state) GetRequest(requestID ids.ID) (*OracleRequest, error) {
	request := &OracleRequest{}
	if err := getRecord(s.requestDB, requestID[:], request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *state) PutRequest(request *OracleRequest) error {
	requestID := request.ID()
	return putRecord(s.requestDB, requestID[:], request)
}

func (s *state) Commit() error {
	return s.baseDB.Commit()
}

func (s *state) Abort() {
	s.baseDB.Abort()
}

func (s *state) Close() error {
	return s.baseDB.Close()
}

func getRecord(db database.KeyValueReader, key []byte, record interface{}) error {
	bytes, err := db.Get(key)
	if err != nil {
		return err
	}
	if _, err := Codec.Unmarshal(bytes, record); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return nil
}

func putRecord(db database.KeyValueWriter, key []byte, record interface{}) error {
	bytes, err := Codec.Marshal(CodecVersion, record)
	if err != nil {
		return err
	}
	return db.Put(key, bytes)
}

// getUint64 treats a missing key as zero.
func getUint64(db database.KeyValueReader, key []byte) (uint64, error) {
	value, err := database.GetUInt64(db, key)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	return value, err
}

func getFlag(db database.KeyValueReader, key []byte) (bool, error) {
	value, err := getUint64(db, key)
	return value == 1, err
}

func putFlag(db database.KeyValueWriter, key []byte, flag bool) error {
	var value uint64
	if flag {
		value = 1
	}
	return database.PutUInt64(db, key, value)
}

func pairKey(a, b ids.ShortID) []byte {
	key := make([]byte, 0, len(a)+len(b))
	key = append(key, a[:]...)
	return append(key, b[:]...)
}

func flightKey(airline ids.ShortID, number string) []byte {
	key := make([]byte, 0, len(airline)+len(number))
	key = append(key, airline[:]...)
	return append(key, number...)
}
