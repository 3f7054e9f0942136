// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package suretyvm

import (
	"net/http"

	"github.com/luxfi/ids"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/suretyvm/vms/suretyvm/events"
	"github.com/luxfi/suretyvm/vms/suretyvm/executor"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

// Service is the JSON-RPC API of the Surety VM.
type Service struct {
	vm *VM
}

type EmptyReply struct{}

// CallArgs identifies the caller of a mutating operation.
type CallArgs struct {
	Contract ids.ShortID `json:"contract"`
	Sender   ids.ShortID `json:"sender"`
	Value    json.Uint64 `json:"value"`
}

func (a *CallArgs) call() executor.Call {
	return executor.Call{
		Contract: a.Contract,
		Sender:   a.Sender,
		Value:    uint64(a.Value),
	}
}

type AddressArgs struct {
	Address ids.ShortID `json:"address"`
}

type BoolReply struct {
	Result bool `json:"result"`
}

type AmountReply struct {
	Amount json.Uint64 `json:"amount"`
}

func (s *Service) IsOperational(_ *http.Request, _ *struct{}, reply *BoolReply) error {
	operational, err := s.vm.IsOperational()
	reply.Result = operational
	return err
}

type SetOperatingStatusArgs struct {
	Sender      ids.ShortID `json:"sender"`
	Operational bool        `json:"operational"`
}

func (s *Service) SetOperatingStatus(_ *http.Request, args *SetOperatingStatusArgs, _ *EmptyReply) error {
	return s.vm.SetOperatingStatus(args.Sender, args.Operational)
}

type ContractArgs struct {
	Sender   ids.ShortID `json:"sender"`
	Contract ids.ShortID `json:"contract"`
}

func (s *Service) RegisterContract(_ *http.Request, args *ContractArgs, _ *EmptyReply) error {
	return s.vm.RegisterContract(args.Sender, args.Contract)
}

func (s *Service) DeauthorizeContract(_ *http.Request, args *ContractArgs, _ *EmptyReply) error {
	return s.vm.DeauthorizeContract(args.Sender, args.Contract)
}

func (s *Service) IsContractAuthorized(_ *http.Request, args *AddressArgs, reply *BoolReply) error {
	authorized, err := s.vm.IsContractAuthorized(args.Address)
	reply.Result = authorized
	return err
}

type RegisterAirlineArgs struct {
	CallArgs
	Name    string      `json:"name"`
	Airline ids.ShortID `json:"airline"`
}

// RegistrationReply reports whether the airline is registered after the
// call. False means it awaits votes.
type RegistrationReply struct {
	Registered bool `json:"registered"`
}

func (s *Service) RegisterAirline(_ *http.Request, args *RegisterAirlineArgs, reply *RegistrationReply) error {
	registered, err := s.vm.RegisterAirline(args.call(), args.Name, args.Airline)
	reply.Registered = registered
	return err
}

type VoteForAirlineArgs struct {
	CallArgs
	Candidate ids.ShortID `json:"candidate"`
}

func (s *Service) VoteForAirline(_ *http.Request, args *VoteForAirlineArgs, reply *RegistrationReply) error {
	registered, err := s.vm.VoteForAirline(args.call(), args.Candidate)
	reply.Registered = registered
	return err
}

type FundAirlineArgs struct {
	CallArgs
	Airline ids.ShortID `json:"airline"`
}

func (s *Service) FundAirline(_ *http.Request, args *FundAirlineArgs, _ *EmptyReply) error {
	return s.vm.FundAirline(args.call(), args.Airline)
}

type AirlineReply struct {
	IsRegistered      bool        `json:"isRegistered"`
	IsPending         bool        `json:"isPending"`
	Name              string      `json:"name"`
	RegistrationIndex json.Uint64 `json:"registrationIndex"`
	VoteCount         json.Uint64 `json:"voteCount"`
}

func (s *Service) FetchAirlineBuffer(_ *http.Request, args *AddressArgs, reply *AirlineReply) error {
	airline, err := s.vm.FetchAirlineBuffer(args.Address)
	if err != nil {
		return err
	}
	reply.IsRegistered = airline.Registered
	reply.IsPending = airline.Pending()
	reply.Name = airline.Name
	reply.RegistrationIndex = json.Uint64(airline.Index)
	reply.VoteCount = json.Uint64(airline.Votes)
	return nil
}

type CountReply struct {
	Count json.Uint64 `json:"count"`
}

func (s *Service) NumberOfRegisteredAirlines(_ *http.Request, _ *struct{}, reply *CountReply) error {
	count, err := s.vm.NumberOfRegisteredAirlines()
	reply.Count = json.Uint64(count)
	return err
}

type BalanceReply struct {
	Balance  json.Uint64 `json:"balance"`
	IsFunded bool        `json:"isFunded"`
}

func (s *Service) GetAirlineBalance(_ *http.Request, args *AddressArgs, reply *BalanceReply) error {
	balance, err := s.vm.GetAirlineBalance(args.Address)
	if err != nil {
		return err
	}
	funded, err := s.vm.IsFunded(args.Address)
	reply.Balance = json.Uint64(balance)
	reply.IsFunded = funded
	return err
}

type FlightArgs struct {
	CallArgs
	Airline ids.ShortID `json:"airline"`
	Flight  string      `json:"flight"`
}

func (s *Service) RegisterFlight(_ *http.Request, args *FlightArgs, _ *EmptyReply) error {
	return s.vm.RegisterFlight(args.call(), args.Airline, args.Flight)
}

type FlightsReply struct {
	Flights []string `json:"flights"`
}

func (s *Service) GetRegisteredFlights(_ *http.Request, args *AddressArgs, reply *FlightsReply) error {
	flights, err := s.vm.GetRegisteredFlights(args.Address)
	reply.Flights = flights
	if reply.Flights == nil {
		reply.Flights = []string{}
	}
	return err
}

type APIPolicy struct {
	Passenger ids.ShortID `json:"passenger"`
	Premium   json.Uint64 `json:"amountPaid"`
	Credited  bool        `json:"credited"`
}

type FlightReply struct {
	Airline      ids.ShortID `json:"airline"`
	Flight       string      `json:"flight"`
	IsRegistered bool        `json:"isRegistered"`
	StatusCode   uint8       `json:"statusCode"`
	Status       string      `json:"status"`
	UpdatedAt    json.Uint64 `json:"updatedAt"`
	Policies     []APIPolicy `json:"policies"`
}

func (s *Service) GetFlight(_ *http.Request, args *FlightArgs, reply *FlightReply) error {
	flight, err := s.vm.GetFlight(args.Airline, args.Flight)
	if err != nil {
		return err
	}
	reply.Airline = flight.Airline
	reply.Flight = flight.Number
	reply.IsRegistered = flight.Registered
	reply.StatusCode = flight.Status
	reply.Status = state.StatusName(flight.Status)
	reply.UpdatedAt = json.Uint64(flight.UpdatedAt)
	reply.Policies = make([]APIPolicy, len(flight.Policies))
	for i, policy := range flight.Policies {
		reply.Policies[i] = APIPolicy{
			Passenger: policy.Passenger,
			Premium:   json.Uint64(policy.Premium),
			Credited:  policy.Credited,
		}
	}
	return nil
}

func (s *Service) BuyInsurance(_ *http.Request, args *FlightArgs, _ *EmptyReply) error {
	return s.vm.BuyInsurance(args.call(), args.Airline, args.Flight)
}

type FlightNumberArgs struct {
	Flight string `json:"flight"`
}

type PassengersReply struct {
	Passengers []ids.ShortID `json:"passengers"`
}

func (s *Service) GetPoliciesString(_ *http.Request, args *FlightNumberArgs, reply *PassengersReply) error {
	passengers, err := s.vm.GetPoliciesString(args.Flight)
	reply.Passengers = passengers
	if reply.Passengers == nil {
		reply.Passengers = []ids.ShortID{}
	}
	return err
}

func (s *Service) GetPassengerCredit(_ *http.Request, args *AddressArgs, reply *AmountReply) error {
	credit, err := s.vm.GetPassengerCredit(args.Address)
	reply.Amount = json.Uint64(credit)
	return err
}

type WithdrawArgs struct {
	CallArgs
	Amount json.Uint64 `json:"amount"`
}

func (s *Service) Withdraw(_ *http.Request, args *WithdrawArgs, _ *EmptyReply) error {
	return s.vm.Withdraw(args.call(), uint64(args.Amount))
}

type IndexesReply struct {
	Indexes []int `json:"indexes"`
}

func (s *Service) RegisterOracle(_ *http.Request, args *CallArgs, reply *IndexesReply) error {
	indexes, err := s.vm.RegisterOracle(args.call())
	reply.Indexes = state.IndexList(indexes)
	return err
}

func (s *Service) GetOracleIndexes(_ *http.Request, args *AddressArgs, reply *IndexesReply) error {
	indexes, err := s.vm.GetOracleIndexes(args.Address)
	reply.Indexes = state.IndexList(indexes)
	return err
}

type FetchFlightStatusArgs struct {
	CallArgs
	Airline   ids.ShortID `json:"airline"`
	Flight    string      `json:"flight"`
	Timestamp json.Uint64 `json:"timestamp"`
}

type RequestArgs struct {
	Index     uint8       `json:"index"`
	Airline   ids.ShortID `json:"airline"`
	Flight    string      `json:"flight"`
	Timestamp json.Uint64 `json:"timestamp"`
}

type RequestReply struct {
	ID          ids.ID        `json:"id"`
	Index       uint8         `json:"index"`
	Airline     ids.ShortID   `json:"airline"`
	Flight      string        `json:"flight"`
	Timestamp   json.Uint64   `json:"timestamp"`
	Requester   ids.ShortID   `json:"requester"`
	IsOpen      bool          `json:"isOpen"`
	FinalStatus uint8         `json:"finalStatus"`
	Responses   map[uint8]int `json:"responses"`
}

func (r *RequestReply) set(request *state.OracleRequest) {
	r.ID = request.ID()
	r.Index = request.Index
	r.Airline = request.Airline
	r.Flight = request.Flight
	r.Timestamp = json.Uint64(request.Timestamp)
	r.Requester = request.Requester
	r.IsOpen = request.Open
	r.FinalStatus = request.Final
	r.Responses = make(map[uint8]int, len(request.Responses))
	for _, responses := range request.Responses {
		r.Responses[responses.Status] = len(responses.Oracles)
	}
}

func (s *Service) FetchFlightStatus(_ *http.Request, args *FetchFlightStatusArgs, reply *RequestReply) error {
	request, err := s.vm.FetchFlightStatus(args.call(), args.Airline, args.Flight, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.set(request)
	return nil
}

func (s *Service) GetRequest(_ *http.Request, args *RequestArgs, reply *RequestReply) error {
	request, err := s.vm.GetRequest(args.Index, args.Airline, args.Flight, uint64(args.Timestamp))
	if err != nil {
		return err
	}
	reply.set(request)
	return nil
}

type SubmitOracleResponseArgs struct {
	CallArgs
	Index      uint8       `json:"index"`
	Airline    ids.ShortID `json:"airline"`
	Flight     string      `json:"flight"`
	Timestamp  json.Uint64 `json:"timestamp"`
	StatusCode uint8       `json:"statusCode"`
}

type SubmitOracleResponseReply struct {
	Finalized bool `json:"finalized"`
}

func (s *Service) SubmitOracleResponse(_ *http.Request, args *SubmitOracleResponseArgs, reply *SubmitOracleResponseReply) error {
	finalized, err := s.vm.SubmitOracleResponse(
		args.call(),
		args.Index,
		args.Airline,
		args.Flight,
		uint64(args.Timestamp),
		args.StatusCode,
	)
	reply.Finalized = finalized
	return err
}

type GetEventsArgs struct {
	Since json.Uint64 `json:"since"`
	Limit int         `json:"limit"`
}

type GetEventsReply struct {
	Events  []events.Event `json:"events"`
	LastSeq json.Uint64    `json:"lastSeq"`
}

func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	evs, lastSeq := s.vm.GetEvents(uint64(args.Since), args.Limit)
	reply.Events = evs
	if reply.Events == nil {
		reply.Events = []events.Event{}
	}
	reply.LastSeq = json.Uint64(lastSeq)
	return nil
}
