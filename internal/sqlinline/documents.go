package sqlinline

const QInsertDocument = `--sql 7b2e9f10-4c83-4a6d-9e51-d3a08c6f2b97
insert into documents(
  id, user_id, title, author, source_url, source_kind, category, starred,
  lang, body_text, sections, thumbnail_data_url, created_at, updated_at
)
values (
  $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, $7::text, $8::boolean,
  $9::text, $10::text, coalesce($11::jsonb, '[]'::jsonb), $12::text, now(), now()
)
returning created_at, updated_at;
`

const QSelectDocument = `--sql e4a7c3d2-9b16-4f08-8a5e-61c2b0d9f3e8
select
  id, user_id, title, author, source_url, source_kind, category, starred,
  lang, body_text, sections, thumbnail_data_url, created_at, updated_at
from documents
where id = $1::uuid and user_id = $2::uuid
limit 1;
`

const QListDocuments = `--sql 0c9d5e8b-3a27-4f61-b4d0-9e7a12c85f36
select
  id, user_id, title, author, source_url, source_kind, category, starred,
  lang, '' as body_text, '[]'::jsonb as sections, thumbnail_data_url, created_at, updated_at
from documents
where user_id = $1::uuid
  and ($2::text = '' or category = $2::text)
  and ($3::boolean is null or starred = $3::boolean)
order by created_at desc
limit $4::int offset $5::int;
`

const QUpdateDocument = `--sql 5d1f8a26-b7c9-4e03-a6f2-38e0b9d4c715
update documents
set
  title = coalesce($3::text, title),
  category = coalesce($4::text, category),
  starred = coalesce($5::boolean, starred),
  updated_at = now()
where id = $1::uuid and user_id = $2::uuid
returning
  id, user_id, title, author, source_url, source_kind, category, starred,
  lang, body_text, sections, thumbnail_data_url, created_at, updated_at;
`

const QDeleteDocument = `--sql 92b4e6f1-0d38-4c5a-8f7e-a1d6c3b05e29
delete from documents
where id = $1::uuid and user_id = $2::uuid;
`
