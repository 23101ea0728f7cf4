package sqlinline

const QRefillAndGetCredits = `--sql 3f6c2a9e-51d4-4b7e-9a0c-8e2d41f7b6a3
select
  credits::float8,
  monthly_allowance::float8,
  next_refill_date
from check_and_refill_credits($1::uuid);
`

const QDeductCredits = `--sql a81d0c47-2e95-4f3b-b6d8-0c7e93a5f214
select
  new_balance::float8,
  charged::float8,
  replayed
from deduct_credits($1::uuid, $2::numeric, $3::uuid);
`
