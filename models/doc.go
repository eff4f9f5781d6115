// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain and response types for the API.

# Units

Symbol is a code plus decimal precision, written "2,TEST". Asset is an
integer amount in the smallest denomination, written "50.00 TEST". Both
marshal to JSON as those strings.

# Domain Types

  - Registry: token supply, max supply, publisher and settings
  - Account: balance and outstanding vote count per holder
  - Ballot, Option: ballot metadata, status and tallies
  - Receipt: a voter's chosen options and recorded weight

# Response Types

  - ActionResponse: action, request_id, result
  - CountResult: receipts removed by a sweep
  - BallotResults, OptionRank: ranked tallies
  - ReceiptList: a voter's receipts
  - ErrorResponse: error, message, kind, key

# Limits

MinBallotLength, MinCloseLength, MaxVoteReceipts, MaxBallotOptions,
MaxMemoLength and CleanupBatchSize bound every ballot and voter.
*/
package models
