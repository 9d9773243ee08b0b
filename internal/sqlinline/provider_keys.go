package sqlinline

// provider_keys holds one API key per video provider. key_hint keeps the
// last characters so operators can tell keys apart without reading them.

const QSelectProviderKey = `--sql 6375afe7-b765-4a93-bc2c-bf7176549904
select api_key, rotated_at
from provider_keys
where provider = $1::text;
`

const QRotateProviderKey = `--sql de241e20-8e7a-45e1-8caa-48f118ebe52f
insert into provider_keys (provider, api_key, key_hint, rotated_at)
values ($1::text, $2::text, $3::text, now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    key_hint = excluded.key_hint,
    rotated_at = excluded.rotated_at
where provider_keys.api_key is distinct from excluded.api_key;
`
